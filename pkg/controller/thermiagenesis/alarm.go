package thermiagenesis

import (
	"sort"

	"github.com/sirupsen/logrus"
)

const alarmInputs = 203

var alarmsMap = map[int]string{
	0:   "Alarm active, Class: A",
	1:   "Alarm active, Class: B",
	2:   "Alarm active, Class: C",
	9:   "High pressure switch alarm",
	10:  "Low pressure level alarm",
	11:  "High discharge pipe temperature alarm",
	16:  "Flow/pressure switch alarm",
	22:  "Power input phase detection alarm",
	23:  "Inverter unit alarm",
	29:  "Brine temperature out of range alarm",
	34:  "Outdoor sensor alarm",
	50:  "Tap water mid sensor alarm",
	66:  "Sum alarm",
	75:  "Inverter unit communication alarm",
	81:  "Tap water end tank sensor alarm",
	87:  "Tap water top sensor alarm",
	202: "External alarm input",
}

// Alarms returns the active alarms ordered by input.
func (ts *Thermiagenesis) Alarms() ([]string, error) {
	b, err := ts.client.ReadDiscreteInputs(0, alarmInputs)
	if err != nil {
		return nil, err
	}

	inputs := make([]int, 0, len(alarmsMap))
	for i := range alarmsMap {
		inputs = append(inputs, i)
	}
	sort.Ints(inputs)

	errs := make([]string, 0)
	for _, i := range inputs {
		if i >= len(b) {
			logrus.Warnf("thermiagenesis: alarm input %d missing in response of length %d", i, len(b))
			continue
		}
		if b[i] == 1 {
			errs = append(errs, alarmsMap[i])
		}
	}
	return errs, nil
}
