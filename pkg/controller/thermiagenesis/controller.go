package thermiagenesis

import (
	"fmt"
	"math"
	"sync"

	"github.com/nergy-se/priceanalyzer/pkg/analyzer"
	"github.com/nergy-se/priceanalyzer/pkg/controller"
	"github.com/nergy-se/priceanalyzer/pkg/modbusclient"
	"github.com/sirupsen/logrus"
)

const (
	registerComfortWheel  = 5  // holding, scale 100
	registerHotWaterStart = 22 // holding, scale 100
	registerHotWaterStop  = 23 // holding, scale 100
	coilHotWater          = 8
	inputTapWater         = 17 // tank tap water weighted temperature, scale 100
)

// Thermiagenesis writes the hot water start/stop temperatures and shifts the comfort wheel by the price correction.
type Thermiagenesis struct {
	client     modbusclient.Client
	hysteresis float64

	// comfort wheel setting read before the first write
	comfortBase *float64
	written     map[uint16]uint16
	hotWaterOn  *bool
	sync.Mutex
}

func New(client modbusclient.Client, hysteresis float64) *Thermiagenesis {
	return &Thermiagenesis{
		client:     client,
		hysteresis: hysteresis,
		written:    make(map[uint16]uint16),
	}
}

func (ts *Thermiagenesis) Reconcile(current *analyzer.ClassifiedPeriod) error {
	ts.Lock()
	defer ts.Unlock()

	tapWater, err := controller.Scale100itof(ts.client.ReadInputRegister(inputTapWater))
	if err != nil {
		return err
	}

	stop := current.HotWater.Setpoint
	start := stop - ts.hysteresis
	logrus.WithFields(logrus.Fields{
		"start":    start,
		"stop":     stop,
		"on":       current.HotWater.On,
		"tapwater": *tapWater,
	}).Debugf("thermiagenesis: Reconcile")

	err = ts.writeTemp(registerHotWaterStart, start)
	if err != nil {
		return err
	}
	err = ts.writeTemp(registerHotWaterStop, stop)
	if err != nil {
		return err
	}

	err = ts.allowHotwater(current.HotWater.On)
	if err != nil {
		return err
	}

	return ts.shiftComfortWheel(current.AdjustedCorrection)
}

func (ts *Thermiagenesis) shiftComfortWheel(correction float64) error {
	if ts.comfortBase == nil {
		base, err := controller.Scale100itof(ts.client.ReadHoldingRegister16(registerComfortWheel))
		if err != nil {
			return fmt.Errorf("error reading comfort wheel: %w", err)
		}
		ts.comfortBase = base
		logrus.Infof("thermiagenesis: comfort wheel base is %.2f", *base)
	}
	return ts.writeTemp(registerComfortWheel, *ts.comfortBase+correction)
}

// writeTemp writes a scale 100 register unless the value is already written.
func (ts *Thermiagenesis) writeTemp(register uint16, temp float64) error {
	value := modbusclient.Encode(int(math.Round(temp * 100))) // 100 = 1c
	if v, ok := ts.written[register]; ok && v == value {
		return nil
	}
	_, err := ts.client.WriteSingleRegister(register, value)
	if err != nil {
		return fmt.Errorf("error writeTemps %d: %w", register, err)
	}
	ts.written[register] = value
	return nil
}

func (ts *Thermiagenesis) allowHotwater(b bool) error {
	if ts.hotWaterOn != nil && *ts.hotWaterOn == b {
		return nil
	}
	_, err := ts.client.WriteSingleCoil(coilHotWater, modbusclient.CoilValue(b))
	if err != nil {
		return err
	}
	ts.hotWaterOn = &b
	return nil
}
