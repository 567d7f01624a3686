package sqldataset

import (
	"bytes"
	"fmt"
	"math"

	"github.com/pbanos/pollard/feature"
)

/*
FeatureCriterion is a condition on a column of the samples table.
Operators IS NOT NULL and IN take no Value; IN takes its values from
Values instead, and is never satisfied when Values is empty.
*/
type FeatureCriterion struct {
	FeatureColumn string
	Operator      string
	Value         interface{}
	Values        []interface{}
}

/*
NewFeatureCriteria takes a feature.Criterion, a function translating feature
names into column names and a map of discrete values to their IDs and
returns the conditions on the samples table equivalent to the criterion.
*/
func NewFeatureCriteria(fc feature.Criterion, columnName func(string) (string, error), discreteValueIDs map[string]int) ([]*FeatureCriterion, error) {
	column, err := columnName(fc.Feature().Name())
	if err != nil {
		return nil, err
	}
	switch fc := fc.(type) {
	case feature.ContinuousCriterion:
		a, b := fc.Interval()
		var result []*FeatureCriterion
		if !math.IsInf(a, -1) {
			result = append(result, &FeatureCriterion{FeatureColumn: column, Operator: ">=", Value: a})
		}
		if !math.IsInf(b, 1) {
			result = append(result, &FeatureCriterion{FeatureColumn: column, Operator: "<", Value: b})
		}
		if len(result) == 0 {
			result = append(result, &FeatureCriterion{FeatureColumn: column, Operator: "IS NOT NULL"})
		}
		return result, nil
	case feature.DiscreteCriterion:
		ids := make([]interface{}, 0, len(fc.Values()))
		for _, v := range fc.Values() {
			if id, ok := discreteValueIDs[v]; ok {
				ids = append(ids, id)
			}
		}
		return []*FeatureCriterion{{FeatureColumn: column, Operator: "IN", Values: ids}}, nil
	}
	return nil, fmt.Errorf("unsupported criterion type %T", fc)
}

// buildWhereClause returns the WHERE clause for the given criteria,
// using placeholder to number query arguments, and the arguments.
func buildWhereClause(criteria []*FeatureCriterion, placeholder func(int) string) (string, []interface{}) {
	if len(criteria) == 0 {
		return "", nil
	}
	var buf bytes.Buffer
	var values []interface{}
	buf.WriteString(" WHERE ")
	for i, c := range criteria {
		if i > 0 {
			buf.WriteString(" AND ")
		}
		switch c.Operator {
		case "IS NOT NULL":
			buf.WriteString(fmt.Sprintf(`"%s" IS NOT NULL`, c.FeatureColumn))
		case "IN":
			if len(c.Values) == 0 {
				buf.WriteString("1 = 0")
				continue
			}
			buf.WriteString(fmt.Sprintf(`"%s" IN (`, c.FeatureColumn))
			for j, v := range c.Values {
				if j > 0 {
					buf.WriteString(", ")
				}
				values = append(values, v)
				buf.WriteString(placeholder(len(values)))
			}
			buf.WriteString(")")
		default:
			values = append(values, c.Value)
			buf.WriteString(fmt.Sprintf(`"%s" %s %s`, c.FeatureColumn, c.Operator, placeholder(len(values))))
		}
	}
	return buf.String(), values
}
