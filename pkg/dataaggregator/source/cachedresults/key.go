package cachedresults

import "strings"

const keyNamespace = "livetreinen"

type Prefix string

const (
	PrefixTrain    Prefix = "train"
	PrefixJourney  Prefix = "journey"
	PrefixStations Prefix = "stations"
	PrefixConfig   Prefix = "config"
	PrefixStats    Prefix = "stats"
)

// BuildKey gives every entry the shape livetreinen:<prefix>:<id>[:<param>...]
func BuildKey(prefix Prefix, id string, params ...string) string {
	parts := append([]string{keyNamespace, string(prefix), id}, params...)

	return strings.Join(parts, ":")
}
