package transform

import (
	"io"

	"github.com/go-playground/validator/v10"
	"github.com/npillmayer/kerning/core"
	"github.com/npillmayer/kerning/engine/kerning"
	"gopkg.in/yaml.v3"
)

var recipeValidate *validator.Validate

func init() {
	recipeValidate = validator.New()
}

// Recipe is a named sequence of transformation steps, usually read from
// a YAML file:
//
//	name: tighten caps
//	steps:
//	  - op: scale
//	    pattern: "[A-Z]* , [A-Z]*"
//	    factor: 0.9
//	  - op: round
//	    pattern: "*"
//	    increment: 5
//	    removeRedundant: true
type Recipe struct {
	Name  string `yaml:"name"`
	Steps []Step `yaml:"steps" validate:"required,min=1,dive"`
}

// Step is a single transformation of a recipe. Pattern selects stored entries
// with the PatternMatcher given to Run.
type Step struct {
	Op              string  `yaml:"op" validate:"required,oneof=scale shift round threshold remove"`
	Pattern         string  `yaml:"pattern" validate:"required"`
	Factor          float64 `yaml:"factor" validate:"required_if=Op scale"`
	Delta           int     `yaml:"delta"`
	Increment       int     `yaml:"increment" validate:"required_if=Op round,gte=0"`
	Limit           int     `yaml:"limit" validate:"gte=0"`
	RemoveRedundant bool    `yaml:"removeRedundant"`
}

// LoadRecipe reads and validates a recipe.
func LoadRecipe(r io.Reader) (*Recipe, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, core.WrapError(err, core.EINVALID, "cannot read recipe")
	}
	recipe := &Recipe{}
	if err := yaml.Unmarshal(data, recipe); err != nil {
		return nil, core.WrapError(err, core.EINVALID, "cannot parse recipe")
	}
	if err := recipeValidate.Struct(recipe); err != nil {
		return nil, core.WrapError(err, core.EINVALID, "invalid recipe %q", recipe.Name)
	}
	return recipe, nil
}

// Run applies the steps of a recipe to a store, one after the other. Each
// step sees the results of the steps before it. Returns the result of every
// step. If a step fails, the steps before it remain applied.
func (recipe *Recipe) Run(st *kerning.Store, m PatternMatcher) ([]*Result, error) {
	results := make([]*Result, 0, len(recipe.Steps))
	for i, step := range recipe.Steps {
		pairs, err := SelectPairs(st, m, step.Pattern)
		if err != nil {
			return results, core.WrapError(err, core.EINVALID, "recipe %q, step %d", recipe.Name, i+1)
		}
		var res *Result
		switch step.Op {
		case "scale":
			res = Scale(st, pairs, step.Factor)
		case "shift":
			res = Shift(st, pairs, step.Delta)
		case "round":
			res, err = Round(st, pairs, step.Increment, step.RemoveRedundant)
		case "threshold":
			res, err = Threshold(st, pairs, step.Limit, step.RemoveRedundant)
		case "remove":
			res = Remove(st, pairs)
		default:
			err = core.Error(core.EINVALID, "unknown operation %q", step.Op)
		}
		if err != nil {
			return results, core.WrapError(err, core.EINVALID, "recipe %q, step %d", recipe.Name, i+1)
		}
		res.Apply(st)
		results = append(results, res)
		tracer().Infof("recipe %q, step %d (%s): %d changes", recipe.Name, i+1, step.Op, res.Len())
	}
	return results, nil
}
