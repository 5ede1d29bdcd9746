package ledconfig

import (
	"fmt"
	"math"
	"strings"

	"github.com/smazurov/ledmanager/internal/layout"
	"gopkg.in/yaml.v3"
)

type documentV1 struct {
	LEDs []groupV1 `yaml:"leds"`
}

type groupV1 struct {
	Group   text       `yaml:"group"`
	Members []memberV1 `yaml:"members"`
}

type memberV1 struct {
	Name     text   `yaml:"Name"`
	Action   text   `yaml:"Action"`
	DutyOn   *count `yaml:"DutyOn"`
	Period   *count `yaml:"Period"`
	Priority *text  `yaml:"Priority"`
}

// text is a string field that rejects numbers, booleans and collections.
type text string

func (t *text) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode || node.ShortTag() != "!!str" {
		return fmt.Errorf("expected a string, got %s", describe(node))
	}
	*t = text(node.Value)
	return nil
}

// count is an unsigned 32-bit integer field. Fractions and negatives are rejected.
type count uint32

func (c *count) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode || node.ShortTag() != "!!int" {
		return fmt.Errorf("expected an unsigned integer, got %s", describe(node))
	}
	var v uint64
	if err := node.Decode(&v); err != nil {
		return err
	}
	if v > math.MaxUint32 {
		return fmt.Errorf("integer %d out of range", v)
	}
	*c = count(v)
	return nil
}

func describe(node *yaml.Node) string {
	if node.Kind == yaml.ScalarNode {
		return fmt.Sprintf("%s %q", node.ShortTag(), node.Value)
	}
	return node.ShortTag()
}

// parseV1 builds the group map from a version 1 document.
func parseV1(doc *Document, o *options) (layout.GroupMap, error) {
	var cfg documentV1
	if err := doc.Decode(&cfg); err != nil {
		return nil, err
	}

	groups := make(layout.GroupMap, len(cfg.LEDs))
	priorities := NewPriorityRecord()
	prefix := strings.TrimSuffix(o.groupPrefix, "/")

	for _, entry := range cfg.LEDs {
		group := string(entry.Group)
		path := prefix + "/" + group

		actions := make(layout.ActionSet, len(entry.Members))
		for _, m := range entry.Members {
			member, err := m.toLedAction(group)
			if err != nil {
				return nil, err
			}

			// Same LED can be in several groups, but its priority must match
			if err := priorities.Check(member.Name, member.Priority); err != nil {
				return nil, err
			}

			if !actions.Add(member) {
				o.logger.Debug("Duplicate LED in group ignored", "group", path, "name", member.Name)
			}
		}

		if !groups.Insert(path, actions) {
			o.logger.Debug("Duplicate group path ignored", "group", path)
		}
	}

	return groups, nil
}

func (m memberV1) toLedAction(group string) (layout.LedAction, error) {
	name := string(m.Name)
	action, err := decodeAction(group, name, "Action", string(m.Action))
	if err != nil {
		return layout.LedAction{}, err
	}

	priority := layout.DefaultPriority
	if m.Priority != nil {
		if priority, err = decodeAction(group, name, "Priority", string(*m.Priority)); err != nil {
			return layout.LedAction{}, err
		}
	}

	member := layout.LedAction{
		Name:     name,
		Action:   action,
		DutyOn:   layout.DefaultDutyOn,
		Period:   layout.DefaultPeriod,
		Priority: priority,
	}
	if m.DutyOn != nil {
		member.DutyOn = uint32(*m.DutyOn)
	}
	if m.Period != nil {
		member.Period = uint32(*m.Period)
	}

	return member, nil
}

func decodeAction(group, member, field, value string) (layout.Action, error) {
	action, ok := layout.ParseAction(value)
	if !ok {
		return 0, &InvalidActionError{
			Group:  group,
			Member: member,
			Field:  field,
			Value:  value,
		}
	}
	return action, nil
}
