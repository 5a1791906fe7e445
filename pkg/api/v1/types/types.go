package types

type HeatControlType string

var HeatControlTypeThermiaGenesis = HeatControlType("thermiagenesis")
var HeatControlTypeDummy = HeatControlType("dummy")
var HeatControlTypeNone = HeatControlType("none")
