/*
Package csv provides functions to read datasets from CSV streams and
write them back.

The header or first row of the CSV content names the features of each
column. Columns for features that are not known are ignored. The rest of the
rows hold the values of the samples, with the '?' string or an empty cell
indicating an undefined value.
*/
package csv

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/pbanos/pollard/dataset"
	"github.com/pbanos/pollard/feature"
)

// UndefinedValue is the cell content written for values a sample does not define.
const UndefinedValue = "?"

/*
Writer is an interface for a dataset to which samples
can be written to.
*/
type Writer interface {
	// Write will attempt to write the given
	// samples and will return the actually written
	// number of samples and an error (if not all samples
	// could be written)
	Write(context.Context, []dataset.Sample) (int, error)
	// Count returns the total number of samples written
	// to the writer
	Count() int
	// Flush ensures any pending written operations finish
	// before returning. It returns an error if that cannot
	// be ensured.
	Flush() error
}

/*
DatasetGenerator is a function that takes a slice of samples
and generates a dataset with them.
*/
type DatasetGenerator func([]dataset.Sample) dataset.Dataset

type csvWriter struct {
	count    int
	features []feature.Feature
	w        *csv.Writer
}

type column struct {
	index   int
	feature feature.Feature
}

/*
ReadDataset takes an io.Reader for a CSV stream, a slice of features and a
DatasetGenerator and returns a dataset.Dataset built with the DatasetGenerator
and the samples parsed from the reader or an error.
*/
func ReadDataset(ctx context.Context, reader io.Reader, features []feature.Feature, dg DatasetGenerator) (dataset.Dataset, error) {
	samples := []dataset.Sample{}
	err := ReadDatasetBySample(ctx, reader, features, func(_ int, s dataset.Sample) (bool, error) {
		samples = append(samples, s)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return dg(samples), nil
}

/*
ReadDatasetBySample takes an io.Reader for a CSV stream, a slice of features and a
lambda function on an integer and a dataset.Sample that returns a boolean value.
It parses the samples from the reader and for each it calls the lambda function
with the sample and its index as parameters. If the lambda function returns true,
it will continue processing the next sample, otherwise it will stop. An error is
returned if something goes wrong when reading the stream or parsing a sample.
*/
func ReadDatasetBySample(ctx context.Context, reader io.Reader, features []feature.Feature, lambda func(int, dataset.Sample) (bool, error)) error {
	r := csv.NewReader(reader)
	r.ReuseRecord = true
	header, err := r.Read()
	if err != nil {
		return fmt.Errorf("reading header: %v", err)
	}
	columns, err := parseHeader(header, features)
	if err != nil {
		return err
	}
	for l := 2; ; l++ {
		if err = ctx.Err(); err != nil {
			return err
		}
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("reading body: %v", err)
		}
		sample, err := parseRow(row, columns)
		if err != nil {
			return fmt.Errorf("parsing line %d: %v", l, err)
		}
		ok, err := lambda(l-2, sample)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
	}
	return nil
}

/*
ReadDatasetFromFilePath takes a filepath string, a slice of features and a
DatasetGenerator, opens the file to which the filepath points to and uses
ReadDataset to return a dataset.Dataset or an error read from it. If the
filepath is "" os.Stdin is read instead. It will return an error if the given
filepath cannot be opened for reading.
*/
func ReadDatasetFromFilePath(ctx context.Context, filepath string, features []feature.Feature, dg DatasetGenerator) (dataset.Dataset, error) {
	f := os.Stdin
	if filepath != "" {
		var err error
		f, err = os.Open(filepath)
		if err != nil {
			return nil, fmt.Errorf("reading dataset: %v", err)
		}
		defer f.Close()
	}
	ds, err := ReadDataset(ctx, f, features, dg)
	if err != nil {
		err = fmt.Errorf("parsing CSV file %s: %v", filepath, err)
	}
	return ds, err
}

/*
NewWriter takes an io.Writer and a slice of feature.Features and
returns a Writer that will write any samples on the io.Writer.
*/
func NewWriter(writer io.Writer, features []feature.Feature) (Writer, error) {
	w := csv.NewWriter(writer)
	record := make([]string, len(features))
	for i, f := range features {
		record[i] = f.Name()
	}
	err := w.Write(record)
	if err != nil {
		return nil, fmt.Errorf("writing CSV header: %v", err)
	}
	return &csvWriter{features: features, w: w}, nil
}

/*
WriteCSVDataset takes a writer, a dataset.Dataset and a slice of features and
dumps to the writer the dataset in CSV format, specifying only the features
in the given slice for the samples. It returns an error if something
went wrong when writing to the writer, or codifying the samples.
*/
func WriteCSVDataset(ctx context.Context, writer io.Writer, ds dataset.Dataset, features []feature.Feature) error {
	cw, err := NewWriter(writer, features)
	if err != nil {
		return err
	}
	samples, err := ds.Samples(ctx)
	if err != nil {
		return err
	}
	_, err = cw.Write(ctx, samples)
	if err != nil {
		return err
	}
	return cw.Flush()
}

func parseHeader(header []string, features []feature.Feature) ([]column, error) {
	var columns []column
	seen := make(map[string]bool)
	for i, name := range header {
		f := feature.Find(features, name)
		if f == nil {
			continue
		}
		if seen[name] {
			return nil, fmt.Errorf("parsing header: feature %s appears more than once", name)
		}
		seen[name] = true
		columns = append(columns, column{i, f})
	}
	return columns, nil
}

func parseRow(row []string, columns []column) (dataset.Sample, error) {
	featureValues := make(map[string]interface{}, len(columns))
	for _, c := range columns {
		if c.index >= len(row) {
			continue
		}
		v := row[c.index]
		if v == UndefinedValue || v == "" {
			continue
		}
		var value interface{} = v
		if _, ok := c.feature.(*feature.ContinuousFeature); ok {
			fv, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, fmt.Errorf("converting %s to float64: %v", v, err)
			}
			if math.IsNaN(fv) {
				continue
			}
			value = fv
		}
		if ok, err := c.feature.Valid(value); !ok {
			return nil, fmt.Errorf("invalid value %v for feature %s: %v", value, c.feature.Name(), err)
		}
		featureValues[c.feature.Name()] = value
	}
	return dataset.NewSample(featureValues), nil
}

func (cw *csvWriter) Count() int {
	return cw.count
}

func (cw *csvWriter) Write(ctx context.Context, samples []dataset.Sample) (int, error) {
	for n, s := range samples {
		if err := cw.writeSample(ctx, s); err != nil {
			return n, err
		}
	}
	return len(samples), nil
}

func (cw *csvWriter) writeSample(ctx context.Context, sample dataset.Sample) error {
	record := make([]string, len(cw.features))
	for j, f := range cw.features {
		v, err := sample.ValueFor(ctx, f)
		if err != nil {
			return err
		}
		switch v := v.(type) {
		case nil:
			record[j] = UndefinedValue
		case float64:
			if math.IsNaN(v) {
				record[j] = UndefinedValue
			} else {
				record[j] = strconv.FormatFloat(v, 'g', -1, 64)
			}
		default:
			record[j] = fmt.Sprintf("%v", v)
		}
	}
	err := cw.w.Write(record)
	if err != nil {
		return fmt.Errorf("writing CSV row for sample %d: %v", cw.count+1, err)
	}
	cw.count++
	return nil
}

func (cw *csvWriter) Flush() error {
	cw.w.Flush()
	return cw.w.Error()
}
