package service

import (
	"context"
	"sync"

	"github.com/niksmo/prime-house/internal/core/port"
)

// A Service ties together the background components of the listings
// pipeline: the commands processor that maintains the collection and the
// catalog that follows it.
type Service struct {
	propertiesProc port.PropertiesProcessor
	catalog        *Catalog
}

func New(
	propertiesProc port.PropertiesProcessor,
	catalog *Catalog,
) Service {
	return Service{
		propertiesProc,
		catalog,
	}
}

// Run runs the services components in separate goroutines.
//
// Blocks current goroutine while the processor is preparing to ready state,
// the catalog subscription starts after that.
func (s Service) Run(ctx context.Context, stopFn context.CancelFunc) {
	var wg sync.WaitGroup
	wg.Add(1)
	go s.propertiesProc.Run(ctx, stopFn, &wg)
	wg.Wait()

	go s.catalog.Run(ctx)
}

func (s Service) Close() {
	s.propertiesProc.Close()
}
