package query

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"
)

const DefaultJoinLimit = 100

type Relation string

const (
	RelationOneToOne  Relation = "one-to-one"
	RelationOneToMany Relation = "one-to-many"
)

type JoinOn struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// JoinConfig describes how records of another table attach to a parent
// record. The zero value stands for a bare `true` and is filled in by
// Normalize.
type JoinConfig struct {
	On       JoinOn   `json:"on"`
	Relation Relation `json:"relation"`
	Limit    int      `json:"limit,omitempty"`
}

// JoinOptions maps the joined table name to its config.
type JoinOptions map[string]JoinConfig

func (c *JoinConfig) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch string(data) {
	case "true", "null":
		*c = JoinConfig{}
		return nil
	case "false":
		return fmt.Errorf("join config cannot be false")
	}

	type config JoinConfig
	var v config
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*c = JoinConfig(v)
	return nil
}

// Normalize fills in the defaults for model: on id = <model>_id,
// one-to-many and a limit of DefaultJoinLimit.
func (c JoinConfig) Normalize(model string) JoinConfig {
	if c == (JoinConfig{}) {
		return JoinConfig{
			On:       JoinOn{From: "id", To: model + "_id"},
			Relation: RelationOneToMany,
			Limit:    DefaultJoinLimit,
		}
	}
	if len(c.On.From) == 0 {
		c.On.From = "id"
	}
	if len(c.On.To) == 0 {
		c.On.To = model + "_id"
	}
	if len(c.Relation) == 0 {
		c.Relation = RelationOneToMany
	}
	if c.Limit <= 0 {
		c.Limit = DefaultJoinLimit
	}
	return c
}
