// Command multiwatch runs two engines on one in-process bus and shows a load
// in the first replicating into the second.
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/felixgeelhaar/oversight/application"
	"github.com/felixgeelhaar/oversight/domain/state"
	"github.com/felixgeelhaar/oversight/infrastructure/fetch"
	"github.com/felixgeelhaar/oversight/infrastructure/storage/memory"
)

func main() {
	ctx := context.Background()
	bus := memory.NewBus()

	console, err := application.NewEngineWithOptions(ctx,
		application.WithOrigin("console"),
		application.WithBroadcast(bus.Connect()),
		application.WithFetcher(fetch.NewSimulator(fetch.WithDelay(200*time.Millisecond))),
	)
	if err != nil {
		log.Fatal(err)
	}
	defer console.Close()

	mirror, err := application.NewEngineWithOptions(ctx,
		application.WithOrigin("mirror"),
		application.WithBroadcast(bus.Connect()),
	)
	if err != nil {
		log.Fatal(err)
	}
	defer mirror.Close()

	unsubscribe := mirror.Subscribe(func(snapshot state.Snapshot) {
		fmt.Printf("mirror sees: %s\n", snapshot.Status)
	})
	defer unsubscribe()

	if err := console.LoadAction(ctx, "REF-2024-A7K", "alice"); err != nil {
		log.Fatal(err)
	}

	record := mirror.GetState().Action
	fmt.Printf("replicated record: %s (%s) executed by %s\n",
		record.ActionID, record.Type, record.ExecutedBy)
}
