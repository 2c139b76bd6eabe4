package models

type CollectionResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Failed  int `json:"failed"`
}

func (c CollectionResult) Total() int {
	return c.Created + c.Updated + c.Failed
}

type SettingsResult struct {
	Updated bool `json:"updated"`
	Failed  bool `json:"failed"`
}

type RestoreResult struct {
	Prijemi  CollectionResult `json:"prijemi"`
	Ponude   CollectionResult `json:"ponude"`
	Stavke   CollectionResult `json:"stavke"`
	Settings SettingsResult   `json:"settings"`
	Errors   []string         `json:"errors"`
}

func NewRestoreResult() *RestoreResult {
	return &RestoreResult{Errors: make([]string, 0)}
}

// Collection returns the counters for one of the document collections.
func (r *RestoreResult) Collection(name string) *CollectionResult {
	switch name {
	case CollectionPrijemi:
		return &r.Prijemi
	case CollectionPonude:
		return &r.Ponude
	case CollectionStavke:
		return &r.Stavke
	}
	return nil
}
