package app

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/nergy-se/priceanalyzer/pkg/alarm"
	"github.com/nergy-se/priceanalyzer/pkg/analyzer"
	"github.com/nergy-se/priceanalyzer/pkg/api/v1/config"
	"github.com/nergy-se/priceanalyzer/pkg/api/v1/types"
	"github.com/nergy-se/priceanalyzer/pkg/controller"
	"github.com/nergy-se/priceanalyzer/pkg/controller/dummy"
	"github.com/nergy-se/priceanalyzer/pkg/controller/thermiagenesis"
	"github.com/nergy-se/priceanalyzer/pkg/driver"
	"github.com/nergy-se/priceanalyzer/pkg/metrics"
	"github.com/nergy-se/priceanalyzer/pkg/modbusclient"
	"github.com/nergy-se/priceanalyzer/pkg/mqtt"
	"github.com/nergy-se/priceanalyzer/pkg/nordpool"
	"github.com/nergy-se/priceanalyzer/pkg/price"
	"github.com/nergy-se/priceanalyzer/pkg/store"
	"github.com/nergy-se/priceanalyzer/pkg/web"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

type App struct {
	wg     *sync.WaitGroup
	config *config.CliConfig

	names     []string
	areas     map[string]*driver.Area
	scheduler *scheduler
	cron      *cron.Cron

	alarms  *alarm.ActiveAlarms
	metrics *metrics.Metrics
	store   *store.SQLite
	closers []func() error
}

func New(config *config.CliConfig) *App {
	return &App{
		wg:      &sync.WaitGroup{},
		config:  config,
		areas:   make(map[string]*driver.Area),
		alarms:  &alarm.ActiveAlarms{},
		metrics: metrics.New(),
	}
}

func (a *App) Start(ctx context.Context) error {
	names, err := a.config.AreaList()
	if err != nil {
		return err
	}
	a.names = names

	opts, err := a.config.AnalyzerOptions()
	if err != nil {
		return fmt.Errorf("error parsing analyzer options: %w", err)
	}

	notifiers := driver.Notifiers{a.metrics}

	server, err := mqtt.Start(ctx, a.wg, a.config.MQTTAddress)
	if err != nil {
		return fmt.Errorf("error starting mqtt broker: %w", err)
	}
	notifiers = append(notifiers, mqtt.NewPublisher(server, mqtt.DefaultPrefix))

	if a.config.DatabasePath != "" {
		a.store, err = store.Open(a.config.DatabasePath)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, a.store.Close)
		notifiers = append(notifiers, a.store)
	}

	reconciler, err := a.setupController(a.config.Controller(names))
	if err != nil {
		return err
	}
	if reconciler != nil {
		notifiers = append(notifiers, reconciler)
	}

	clients := make(map[price.Currency]*nordpool.Client)
	schedulerAreas := make(map[string]Area, len(names))
	for _, name := range names {
		info, _ := price.LookupArea(name)
		loc, err := info.Location()
		if err != nil {
			return fmt.Errorf("error loading timezone for %s: %w", name, err)
		}
		converter, err := a.config.Converter(info)
		if err != nil {
			return err
		}

		currency := a.config.CurrencyFor(info)
		client, ok := clients[currency]
		if !ok {
			client = nordpool.New(a.config.ProviderURL, currency)
			clients[currency] = client
		}

		area := driver.New(driver.Config{
			Area:              name,
			Location:          loc,
			Currency:          currency,
			TomorrowAfterHour: a.config.TomorrowAfterHour,
		}, client, analyzer.New(converter, opts), notifiers)
		a.areas[name] = area
		schedulerAreas[name] = area
	}

	a.scheduler = newScheduler(schedulerAreas, a.alarms, a.metrics, a.config.RetryInterval(), a.config.RetryMax())
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.scheduler.run(ctx)
	}()

	err = a.startCron(ctx)
	if err != nil {
		return err
	}

	if a.config.HTTPAddress != "" {
		a.startWeb(ctx)
	}

	for _, name := range names {
		a.scheduler.trigger(ctx, event{area: name, trigger: driver.TriggerNewHour})
	}

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		<-ctx.Done()
		<-a.cron.Stop().Done()
		for _, closer := range a.closers {
			if err := closer(); err != nil {
				logrus.Errorf("app: error closing: %s", err)
			}
		}
	}()
	return nil
}

func (a *App) Wait() {
	a.wg.Wait()
}

func (a *App) setupController(cfg config.ControllerConfig) (*controller.Reconciler, error) {
	err := cfg.Validate(a.names)
	if err != nil {
		return nil, err
	}

	var c controller.Controller
	switch cfg.HeatControlType {
	case types.HeatControlTypeNone, "":
		return nil, nil
	case types.HeatControlTypeDummy:
		c = dummy.New()
	case types.HeatControlTypeThermiaGenesis:
		client, closer := modbusclient.NewTCP(cfg.Address, 1)
		a.closers = append(a.closers, closer)
		c = thermiagenesis.New(client, cfg.HotWaterHysteresis)
	}

	logrus.WithFields(logrus.Fields{
		"type": cfg.HeatControlType,
		"area": cfg.Area,
	}).Info("app: controller configured")
	return controller.NewReconciler(cfg.Area, c, a.alarms), nil
}

func (a *App) startCron(ctx context.Context) error {
	a.cron = cron.New(cron.WithParser(parser), cron.WithLocation(time.Local))

	_, err := a.cron.AddFunc(periodSpec(a.config.QuarterHourly), func() {
		now := time.Now()
		for _, name := range a.names {
			// midnight is handled by the new day trigger
			local := now.In(a.areas[name].Location())
			if local.Hour() == 0 && local.Minute() == 0 {
				continue
			}
			a.scheduler.trigger(ctx, event{area: name, trigger: driver.TriggerNewHour})
		}
	})
	if err != nil {
		return fmt.Errorf("error scheduling new period: %w", err)
	}

	for _, name := range a.names {
		name := name
		_, err := a.cron.AddFunc(daySpec(a.areas[name].Location().String()), func() {
			a.scheduler.trigger(ctx, event{area: name, trigger: driver.TriggerNewDay})
		})
		if err != nil {
			return fmt.Errorf("error scheduling new day for %s: %w", name, err)
		}
	}

	_, err = a.cron.AddFunc(publishSpec(a.config.PublishHour, a.config.PublishMinute, a.config.PublishSecond), func() {
		for _, name := range a.names {
			a.scheduler.trigger(ctx, event{area: name, trigger: driver.TriggerNewPrice})
		}
	})
	if err != nil {
		return fmt.Errorf("error scheduling new price: %w", err)
	}

	a.cron.Start()
	logrus.Infof("app: scheduled triggers for %s", strings.Join(a.names, ","))
	return nil
}

func (a *App) startWeb(ctx context.Context) {
	areas := make(map[string]web.Area, len(a.areas))
	for name, area := range a.areas {
		areas[name] = area
	}
	var history web.History
	if a.store != nil {
		history = a.store
	}
	server := web.NewServer(areas, history, a.alarms, a.metrics.Handler())

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		err := server.ListenAndServe(ctx, a.config.HTTPAddress)
		if err != nil {
			logrus.Errorf("app: web server: %s", err)
		}
	}()
}

// Area returns the driver of a configured area or nil.
func (a *App) Area(name string) *driver.Area {
	return a.areas[strings.ToUpper(name)]
}
