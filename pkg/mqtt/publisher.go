package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	mqttv2 "github.com/mochi-mqtt/server/v2"
	"github.com/nergy-se/priceanalyzer/pkg/driver"
	"github.com/nergy-se/priceanalyzer/pkg/state"
	"github.com/sirupsen/logrus"
)

const DefaultPrefix = "priceanalyzer"

// Publisher publishes retained messages for every recomputation:
//
//	<prefix>/<area>/state     json of the current state
//	<prefix>/<area>/<key>     one topic per state key
//	<prefix>/<area>/today     json of today's classified periods
//	<prefix>/<area>/tomorrow  json of tomorrow's classified periods
type Publisher struct {
	server *mqttv2.Server
	prefix string
}

func NewPublisher(server *mqttv2.Server, prefix string) *Publisher {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Publisher{
		server: server,
		prefix: strings.TrimSuffix(prefix, "/"),
	}
}

func (p *Publisher) Topic(area, key string) string {
	return fmt.Sprintf("%s/%s/%s", p.prefix, strings.ToLower(area), key)
}

func (p *Publisher) Notify(ctx context.Context, s *driver.Snapshot) error {
	st := state.FromSnapshot(s)
	var errs []error

	errs = append(errs, p.publishJSON(p.Topic(s.Area, "state"), st))

	m := st.Map()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		errs = append(errs, p.server.Publish(p.Topic(s.Area, k), []byte(fmt.Sprint(m[k])), true, 0))
	}

	errs = append(errs, p.publishJSON(p.Topic(s.Area, "today"), s.Today))
	errs = append(errs, p.publishJSON(p.Topic(s.Area, "tomorrow"), s.Tomorrow))

	err := errors.Join(errs...)
	if err != nil {
		return fmt.Errorf("error publishing mqtt: %w", err)
	}
	logrus.WithFields(logrus.Fields{
		"area": s.Area,
		"id":   s.ID,
	}).Debug("mqtt: published")
	return nil
}

func (p *Publisher) publishJSON(topic string, v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return p.server.Publish(topic, b, true, 0)
}
