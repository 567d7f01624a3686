package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pbanos/pollard/dataset"
	"github.com/pbanos/pollard/dataset/csv"
	"github.com/pbanos/pollard/dataset/mongodataset"
	"github.com/pbanos/pollard/dataset/sqldataset"
	"github.com/pbanos/pollard/dataset/sqldataset/pgadapter"
	"github.com/pbanos/pollard/dataset/sqldataset/sqlite3adapter"
	"github.com/pbanos/pollard/feature"
	"go.uber.org/zap"
	mgo "gopkg.in/mgo.v2"
)

const inputFlagUsage = "path to an input CSV (.csv) or SQLite3 (.db) file, or a PostgreSQL (postgresql://) or MongoDB (mongodb://) connection URL with the data (defaults to STDIN, interpreted as CSV)"

// storedDataset is a dataset kept on a database, to which samples can be
// written and from which they can be streamed.
type storedDataset interface {
	dataset.Dataset
	Write(context.Context, []dataset.Sample) (int, error)
	Read(context.Context) (<-chan dataset.Sample, <-chan error)
}

type backend int

const (
	csvBackend backend = iota
	sqlite3Backend
	postgresqlBackend
	mongoBackend
)

func backendFor(location string) backend {
	switch {
	case strings.HasPrefix(location, "postgresql://"):
		return postgresqlBackend
	case strings.HasPrefix(location, "mongodb://"):
		return mongoBackend
	case strings.HasSuffix(location, ".db"):
		return sqlite3Backend
	}
	return csvBackend
}

func datasetGenerator(memoryIntensive, cpuIntensive bool) csv.DatasetGenerator {
	if memoryIntensive {
		return dataset.NewMemoryIntensive
	}
	if cpuIntensive {
		return dataset.NewCPUIntensive
	}
	return dataset.New
}

/*
openDataset returns the dataset at the given location along a function to
release its resources. CSV datasets are read into memory with the given
generator.
*/
func openDataset(ctx context.Context, location string, features []feature.Feature, dg csv.DatasetGenerator, maxConns int, logger *zap.SugaredLogger) (dataset.Dataset, func(), error) {
	if backendFor(location) != csvBackend {
		return openStoredDataset(ctx, location, features, false, maxConns, logger)
	}
	if location == "" {
		logger.Infof("Reading dataset from STDIN...")
	} else {
		logger.Infof("Reading dataset from %s...", location)
	}
	ds, err := csv.ReadDatasetFromFilePath(ctx, location, features, dg)
	if err != nil {
		return nil, nil, err
	}
	return ds, func() {}, nil
}

/*
openStoredDataset returns the dataset on the database at the given location
along a function to close the connection to it. When create is set, the
tables needed to hold the samples are created on SQL databases.
*/
func openStoredDataset(ctx context.Context, location string, features []feature.Feature, create bool, maxConns int, logger *zap.SugaredLogger) (storedDataset, func(), error) {
	switch backendFor(location) {
	case mongoBackend:
		logger.Infof("Connecting to MongoDB at %s...", location)
		session, err := mgo.Dial(location)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to %s: %v", location, err)
		}
		ds, err := mongodataset.Open(ctx, session, features)
		if err != nil {
			session.Close()
			return nil, nil, err
		}
		return ds, session.Close, nil
	case postgresqlBackend, sqlite3Backend:
		var adapter sqldataset.Adapter
		var err error
		if backendFor(location) == postgresqlBackend {
			logger.Infof("Creating PostgreSQL adapter for url %s...", location)
			adapter, err = pgadapter.New(location)
		} else {
			logger.Infof("Creating SQLite3 adapter for file %s...", location)
			adapter, err = sqlite3adapter.New(location, maxConns)
		}
		if err != nil {
			return nil, nil, err
		}
		closeAdapter := func() {
			if err := adapter.Close(); err != nil {
				logger.Warnf("closing connection to %s: %v", location, err)
			}
		}
		var set sqldataset.Set
		if create {
			set, err = sqldataset.Create(ctx, adapter, features)
		} else {
			set, err = sqldataset.Open(ctx, adapter, features)
		}
		if err != nil {
			closeAdapter()
			return nil, nil, err
		}
		return set, closeAdapter, nil
	}
	return nil, nil, fmt.Errorf("%s is not a database location", location)
}

/*
openSampleStream streams the samples at the given location. The returned
function releases the resources used.
*/
func openSampleStream(ctx context.Context, location string, features []feature.Feature, logger *zap.SugaredLogger) (<-chan dataset.Sample, <-chan error, func(), error) {
	if backendFor(location) != csvBackend {
		ds, closeFunc, err := openStoredDataset(ctx, location, features, false, 0, logger)
		if err != nil {
			return nil, nil, nil, err
		}
		samples, errs := ds.Read(ctx)
		return samples, errs, closeFunc, nil
	}
	var f *os.File
	if location == "" {
		logger.Infof("Reading samples from STDIN...")
		f = os.Stdin
	} else {
		logger.Infof("Opening %s to read samples...", location)
		var err error
		f, err = os.Open(location)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("reading samples from %s: %v", location, err)
		}
	}
	samples, errs := csvSampleStream(ctx, f, features)
	return samples, errs, func() { f.Close() }, nil
}

func csvSampleStream(ctx context.Context, r io.Reader, features []feature.Feature) (<-chan dataset.Sample, <-chan error) {
	sampleStream := make(chan dataset.Sample)
	errStream := make(chan error, 1)
	go func() {
		err := csv.ReadDatasetBySample(ctx, r, features, func(i int, s dataset.Sample) (bool, error) {
			select {
			case <-ctx.Done():
				return false, nil
			case sampleStream <- s:
			}
			return true, nil
		})
		if err != nil {
			errStream <- err
		}
		close(errStream)
		close(sampleStream)
	}()
	return sampleStream, errStream
}

// sampleWriter is a destination of samples that must be flushed once all
// of them have been written.
type sampleWriter interface {
	Write(context.Context, []dataset.Sample) (int, error)
	Count() int
	Flush() error
}

type storedDatasetWriter struct {
	storedDataset
	count int
	close func()
}

func (sdw *storedDatasetWriter) Write(ctx context.Context, samples []dataset.Sample) (int, error) {
	n, err := sdw.storedDataset.Write(ctx, samples)
	sdw.count += n
	return n, err
}

func (sdw *storedDatasetWriter) Count() int {
	return sdw.count
}

func (sdw *storedDatasetWriter) Flush() error {
	sdw.close()
	return nil
}

type csvFileWriter struct {
	csv.Writer
	f *os.File
}

func (cfw *csvFileWriter) Flush() error {
	err := cfw.Writer.Flush()
	if cfw.f != os.Stdout {
		if cerr := cfw.f.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// openSampleWriter returns a writer of samples to the given location,
// creating the CSV file or the database tables as needed.
func openSampleWriter(ctx context.Context, location string, features []feature.Feature, logger *zap.SugaredLogger) (sampleWriter, error) {
	if backendFor(location) != csvBackend {
		ds, closeFunc, err := openStoredDataset(ctx, location, features, true, 0, logger)
		if err != nil {
			return nil, err
		}
		return &storedDatasetWriter{storedDataset: ds, close: closeFunc}, nil
	}
	f := os.Stdout
	if location != "" {
		logger.Infof("Creating %s to dump samples...", location)
		var err error
		f, err = os.Create(location)
		if err != nil {
			return nil, err
		}
	}
	w, err := csv.NewWriter(f, features)
	if err != nil {
		return nil, err
	}
	return &csvFileWriter{w, f}, nil
}
