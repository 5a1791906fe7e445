package controller

import (
	"context"
	"fmt"
	"strings"

	"github.com/nergy-se/priceanalyzer/pkg/alarm"
	"github.com/nergy-se/priceanalyzer/pkg/analyzer"
	"github.com/nergy-se/priceanalyzer/pkg/driver"
	"github.com/sirupsen/logrus"
)

const AlarmKind = "heatpump"

type Controller interface {
	// Reconcile applies the correction and hot water decision of the current period.
	Reconcile(current *analyzer.ClassifiedPeriod) error

	// Alarms returns the active alarms reported by the device.
	Alarms() ([]string, error)
}

func Scale100itof(i int, err error) (*float64, error) {
	f := float64(i) / 100.0
	return &f, err
}

// Reconciler drives a controller from the snapshots of one area.
type Reconciler struct {
	area       string
	controller Controller
	alarms     *alarm.ActiveAlarms
}

func NewReconciler(area string, c Controller, alarms *alarm.ActiveAlarms) *Reconciler {
	if alarms == nil {
		alarms = &alarm.ActiveAlarms{}
	}
	return &Reconciler{
		area:       strings.ToUpper(area),
		controller: c,
		alarms:     alarms,
	}
}

func (r *Reconciler) Notify(ctx context.Context, s *driver.Snapshot) error {
	if s.Area != r.area || s.Current == nil {
		return nil
	}

	err := r.controller.Reconcile(s.Current)
	if err != nil {
		return fmt.Errorf("error reconciling controller: %w", err)
	}

	active, err := r.controller.Alarms()
	if err != nil {
		return fmt.Errorf("error reading controller alarms: %w", err)
	}
	if len(active) == 0 {
		if r.alarms.Clear(r.area, AlarmKind) {
			logrus.WithFields(logrus.Fields{"area": r.area}).Info("controller: alarms cleared")
		}
		return nil
	}

	// a changed set of alarms replaces the previous one
	msg := strings.Join(active, "; ")
	for _, a := range r.alarms.List() {
		if a.Area == r.area && a.Kind == AlarmKind && a.Message != msg {
			r.alarms.Clear(r.area, AlarmKind)
		}
	}
	if r.alarms.Add(alarm.Alarm{Area: r.area, Kind: AlarmKind, Message: msg, Since: s.Computed}) {
		logrus.WithFields(logrus.Fields{"area": r.area}).Warnf("controller: alarm: %s", msg)
	}
	return nil
}
