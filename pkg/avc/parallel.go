package avc

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
)

// LoadOptions controls batch opening and error handling.
type LoadOptions struct {
	// Parallel enables concurrent opening.
	Parallel bool

	// Workers is the number of opener goroutines.
	// If 0, defaults to runtime.NumCPU().
	// Only used when Parallel is true.
	Workers int

	// SkipErrors continues when individual coverages fail. Failed paths
	// are skipped and their errors collected. When false, the first error
	// stops loading and is returned alone.
	SkipErrors bool

	// Progress is called after each coverage is processed with the number
	// processed so far and the total.
	Progress func(loaded, total int)

	// ErrorLog receives one line per failed coverage.
	ErrorLog io.Writer
}

// DefaultLoadOptions returns load options with sensible defaults.
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{
		Parallel:   true,
		Workers:    runtime.NumCPU(),
		SkipErrors: true,
	}
}

// OpenAll opens many coverages with a worker pool. Coverages are returned
// in the order of paths; failed paths are left out and reported in the
// error slice, each prefixed with its path.
//
// Example:
//
//	paths, _ := avc.FindCoverages("data")
//	covs, errs := avc.OpenAll(paths, avc.DefaultLoadOptions())
//	for _, err := range errs {
//	    log.Println(err)
//	}
//	for _, c := range covs {
//	    defer c.Close()
//	}
func OpenAll(paths []string, lo LoadOptions, opts ...Option) ([]*Coverage, []error) {
	if len(paths) == 0 {
		return []*Coverage{}, nil
	}
	if !lo.Parallel {
		return openAllSerial(paths, lo, opts)
	}

	workers := lo.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(paths) {
		workers = len(paths)
	}

	type openResult struct {
		index int
		cov   *Coverage
		err   error
	}

	jobs := make(chan int, len(paths))
	results := make(chan openResult, len(paths))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for index := range jobs {
				cov, err := Open(paths[index], opts...)
				results <- openResult{index: index, cov: cov, err: err}
			}
		}()
	}

	for i := range paths {
		jobs <- i
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	covMap := make(map[int]*Coverage)
	var errs []error
	var fatal error
	loaded := 0

	// Drain every result so no worker blocks and every opened coverage
	// can be released on a fatal error.
	for result := range results {
		loaded++
		if lo.Progress != nil {
			lo.Progress(loaded, len(paths))
		}
		if result.err != nil {
			err := fmt.Errorf("%s: %w", paths[result.index], result.err)
			if lo.ErrorLog != nil {
				fmt.Fprintf(lo.ErrorLog, "Error opening coverage: %v\n", err)
			}
			if lo.SkipErrors {
				errs = append(errs, err)
			} else if fatal == nil {
				fatal = err
			}
			continue
		}
		covMap[result.index] = result.cov
	}

	if fatal != nil {
		for _, c := range covMap {
			c.Close()
		}
		return nil, []error{fatal}
	}

	covs := make([]*Coverage, 0, len(covMap))
	for i := range paths {
		if c, ok := covMap[i]; ok {
			covs = append(covs, c)
		}
	}
	return covs, errs
}

// openAllSerial opens coverages one at a time.
func openAllSerial(paths []string, lo LoadOptions, opts []Option) ([]*Coverage, []error) {
	covs := make([]*Coverage, 0, len(paths))
	var errs []error

	for i, path := range paths {
		cov, err := Open(path, opts...)
		if lo.Progress != nil {
			lo.Progress(i+1, len(paths))
		}
		if err != nil {
			err := fmt.Errorf("%s: %w", path, err)
			if lo.ErrorLog != nil {
				fmt.Fprintf(lo.ErrorLog, "Error opening coverage: %v\n", err)
			}
			if lo.SkipErrors {
				errs = append(errs, err)
				continue
			}
			for _, c := range covs {
				c.Close()
			}
			return nil, []error{err}
		}
		covs = append(covs, cov)
	}
	return covs, errs
}

var coverageFiles = []string{"arc.adf", "pal.adf", "lab.adf", "cnt.adf"}

// FindCoverages walks root and returns the AVCBin coverage directories and
// E00 files beneath it, sorted. INFO directories are not descended into.
func FindCoverages(root string) ([]string, error) {
	var found []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.EqualFold(d.Name(), "info") {
				return filepath.SkipDir
			}
			if isCoverageDir(path) {
				found = append(found, path)
				return filepath.SkipDir
			}
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".e00") {
			found = append(found, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(found)
	return found, nil
}

func isCoverageDir(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		for _, name := range coverageFiles {
			if strings.EqualFold(e.Name(), name) {
				return true
			}
		}
	}
	return false
}
