package feature

import "fmt"

/*
Feature represents a property that can be observed
*/
type Feature interface {
	Name() string
	Valid(interface{}) (bool, error)
}

/*
DiscreteFeature represents a property that can be observed and that can only
take a value among a finite set of labels.
*/
type DiscreteFeature struct {
	name            string
	availableValues []string
	index           map[string]int
}

/*
ContinuousFeature represents a property that can be observed and that can take
a numeric value
*/
type ContinuousFeature struct {
	name string
}

/*
NewDiscreteFeature takes a name string and a slice of available value strings
and returns a discrete feature with the given names and available values.
The order of the available values is kept and determines the index of each
value.
*/
func NewDiscreteFeature(name string, availableValues []string) *DiscreteFeature {
	index := make(map[string]int, len(availableValues))
	for i, v := range availableValues {
		if _, ok := index[v]; !ok {
			index[v] = i
		}
	}
	return &DiscreteFeature{name, availableValues, index}
}

/*
NewContinuousFeature takes a name string and returns a continuous feature with
the given name.
*/
func NewContinuousFeature(name string) *ContinuousFeature {
	return &ContinuousFeature{name}
}

/*
Name returns a string with the name of the feature
*/
func (df *DiscreteFeature) Name() string {
	return df.name
}

/*
Valid receives an interface value and returns a boolean and an error. When the
value parameter is nil or included in the available values of the feature, the
method returns true and nil. Otherwise it returns false and an error describing
the reason.
*/
func (df *DiscreteFeature) Valid(value interface{}) (bool, error) {
	if value == nil {
		return true, nil
	}
	vs, ok := value.(string)
	if !ok {
		return false, fmt.Errorf("discrete feature %s expects string value, got %T value", df.Name(), value)
	}
	if _, ok = df.index[vs]; !ok {
		return false, fmt.Errorf("discrete feature %s got unknown value %s", df.Name(), vs)
	}
	return true, nil
}

/*
AvailableValues returns a string slice with the values available for the feature
*/
func (df *DiscreteFeature) AvailableValues() []string {
	return df.availableValues
}

// IndexOf returns the position of the given value among the available values
// of the feature and whether it is one of them.
func (df *DiscreteFeature) IndexOf(value string) (int, bool) {
	i, ok := df.index[value]
	return i, ok
}

func (df *DiscreteFeature) String() string {
	return df.name
}

/*
Name returns a string with the name of the feature
*/
func (cf *ContinuousFeature) Name() string {
	return cf.name
}

/*
Valid receives an interface value and returns a boolean and an error. When the
value parameter is nil or a float64 it returns true and nil, otherwise it
returns false and an error describing the reason.
*/
func (cf *ContinuousFeature) Valid(value interface{}) (bool, error) {
	if value == nil {
		return true, nil
	}
	_, ok := value.(float64)
	if !ok {
		return false, fmt.Errorf("continuous feature %s expects float64 value, got %T value", cf.Name(), value)
	}
	return true, nil
}

func (cf *ContinuousFeature) String() string {
	return cf.name
}

// Find returns the feature in the given slice with the given name, or nil if
// there is none.
func Find(features []Feature, name string) Feature {
	for _, f := range features {
		if f.Name() == name {
			return f
		}
	}
	return nil
}
