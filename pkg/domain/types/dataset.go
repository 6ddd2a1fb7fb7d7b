package types

import "fmt"

// Dataset tags the origin of a benchmark scenario
type Dataset string

const (
	DatasetRetrospective Dataset = "retrospective"
	DatasetSynthetic     Dataset = "synthetic"
	DatasetLiterature    Dataset = "literature"
)

// AllDatasets returns datasets in the order they are merged
func AllDatasets() []Dataset {
	return []Dataset{
		DatasetRetrospective,
		DatasetSynthetic,
		DatasetLiterature,
	}
}

// IsValid checks if the dataset is known
func (d Dataset) IsValid() bool {
	switch d {
	case DatasetRetrospective,
		DatasetSynthetic,
		DatasetLiterature:
		return true
	default:
		return false
	}
}

// FileName is the scenario file name of the dataset
func (d Dataset) FileName() string {
	return string(d) + ".json"
}

func (d Dataset) String() string {
	return string(d)
}

// ParseDataset parses a string into a Dataset
func ParseDataset(s string) (Dataset, error) {
	d := Dataset(s)
	if !d.IsValid() {
		return "", fmt.Errorf("invalid dataset: %s", s)
	}
	return d, nil
}
