package singleshot

import (
	"fmt"
	"sync"

	"github.com/shirou/gopsutil/v3/mem"
)

// FileResult is the outcome of reducing one acquisition file.
type FileResult struct {
	Filename string
	Warnings []Warning
	Err      error
}

// MaxWorkersFromMemory sizes the pool so that every in-flight file can
// hold its raw stack in memory at once. A machine too small for even
// one stack still gets a single worker, with a warning attached.
func MaxWorkersFromMemory(stackBytes uint64) (int, Warning) {
	vm, err := mem.VirtualMemory()
	if err != nil || stackBytes == 0 {
		return 1, nil
	}
	workers := int(vm.Available / stackBytes)
	if workers < 1 {
		return 1, &ResourcePressureWarning{StackBytes: stackBytes, Available: vm.Available}
	}
	return workers, nil
}

func processWorker(wg *sync.WaitGroup, jobs <-chan string, results chan<- FileResult, opts ProcessOptions) {
	defer wg.Done()
	for path := range jobs {
		results <- runOne(path, opts)
	}
}

// runOne isolates a single file: a panic anywhere in the reduction
// becomes that file's error instead of taking the pool down.
func runOne(path string, opts ProcessOptions) (result FileResult) {
	result.Filename = path
	defer func() {
		if r := recover(); r != nil {
			if err, ok := r.(error); ok {
				result.Err = err
			} else {
				result.Err = fmt.Errorf("error processing %s: %v", path, r)
			}
		}
	}()
	result.Warnings, result.Err = Process(path, opts)
	return result
}

// RunProcessing reduces files over a fixed pool of workers. Files are
// submitted in the given order; completion order is whatever it is.
func RunProcessing(files []string, workers int, opts ProcessOptions) ([]FileResult, error) {
	if len(files) == 0 {
		return nil, &ErrNoInputFiles{Dir: opts.RunDir}
	}
	if workers < 1 {
		workers = 1
	}
	if workers > len(files) {
		workers = len(files)
	}
	logger.Info(fmt.Sprintf("reducing %d files with %d workers", len(files), workers), "workers")

	jobs := make(chan string, len(files))
	results := make(chan FileResult, len(files))
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go processWorker(&wg, jobs, results, opts)
	}
	for _, f := range files {
		jobs <- f
	}
	close(jobs)
	wg.Wait()
	close(results)

	collected := make([]FileResult, 0, len(files))
	for r := range results {
		if r.Err != nil {
			logger.Error(fmt.Sprintf("error processing %s: %v", r.Filename, r.Err))
		}
		collected = append(collected, r)
	}
	return collected, nil
}
