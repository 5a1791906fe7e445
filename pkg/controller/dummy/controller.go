package dummy

import (
	"sync"

	"github.com/nergy-se/priceanalyzer/pkg/analyzer"
	"github.com/sirupsen/logrus"
)

// Dummy logs every decision instead of writing to a device.
type Dummy struct {
	last *analyzer.ClassifiedPeriod
	sync.Mutex
}

func New() *Dummy {
	return &Dummy{}
}

func (ts *Dummy) Reconcile(current *analyzer.ClassifiedPeriod) error {
	ts.Lock()
	ts.last = current
	ts.Unlock()
	logrus.WithFields(logrus.Fields{
		"start":      current.Start,
		"correction": current.AdjustedCorrection,
		"hotwater":   current.HotWater.Setpoint,
		"on":         current.HotWater.On,
		"reason":     current.Reason,
	}).Info("dummy: Reconcile")
	return nil
}

func (ts *Dummy) Alarms() ([]string, error) {
	return nil, nil
}

// Last returns the period of the last Reconcile.
func (ts *Dummy) Last() *analyzer.ClassifiedPeriod {
	ts.Lock()
	defer ts.Unlock()
	return ts.last
}
