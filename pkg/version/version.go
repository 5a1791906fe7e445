package version

import (
	"encoding/json"
	"runtime/debug"

	"github.com/sirupsen/logrus"
)

type Info struct {
	Commit    string `json:"commit"`
	Time      string `json:"time"`
	GoVersion string `json:"go_version"`
	Modified  bool   `json:"modified"`
}

func Get() Info {
	v := Info{}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return v
	}
	v.GoVersion = info.GoVersion
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			v.Commit = setting.Value
		case "vcs.time":
			v.Time = setting.Value
		case "vcs.modified":
			v.Modified = setting.Value == "true"
		}
	}
	return v
}

var Version = func() string {
	b, err := json.Marshal(Get())
	if err != nil {
		logrus.Fatal(err)
	}
	return string(b)
}()
