// MIT License
//
// Copyright (c) 2025-2026 Prestige Authors
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/travisjeffery/go-dynaport"

	prestige "github.com/hfritz34/prestige-native-sub000"
	"github.com/hfritz34/prestige-native-sub000/admin"
	"github.com/hfritz34/prestige-native-sub000/log"
)

// Rating is the payload the example data source serves.
type Rating struct {
	TrackID string  `json:"track_id"`
	Score   float64 `json:"score"`
}

// ratingsSource pretends to be the backend API: every fetch fabricates a
// rating for the requested track.
type ratingsSource struct{}

func (ratingsSource) Fetch(_ context.Context, category prestige.Category, key string) ([]byte, error) {
	if category != prestige.CategoryRatings {
		return nil, fmt.Errorf("no data for category %s", category)
	}
	return json.Marshal(Rating{TrackID: key, Score: 8.5})
}

func main() {
	ctx := context.Background()
	logger := log.DefaultLogger

	config := prestige.NewConfig(ratingsSource{},
		prestige.WithLogger(logger),
		prestige.WithCapacity(1024, 8<<20),
	)

	engine, err := prestige.NewEngine(config)
	if err != nil {
		logger.Fatal(err)
	}

	if err := engine.Start(ctx); err != nil {
		logger.Fatal(err)
	}

	// First read misses both tiers and fetches; the second is a local hit.
	for i := 0; i < 2; i++ {
		result, err := engine.Get(ctx, prestige.CategoryRatings, "track42")
		if err != nil {
			logger.Fatal(err)
		}
		logger.Infof("track42 rating=%s source=%s", string(result.Value), result.Source)
	}

	// Expose diagnostics on a free port.
	ports := dynaport.Get(1)
	server := admin.NewServer(admin.Config{
		ListenAddr: fmt.Sprintf("127.0.0.1:%d", ports[0]),
	}, engine.(admin.SnapshotProvider), logger)
	if err := server.Start(ctx); err != nil {
		logger.Fatal(err)
	}
	logger.Infof("diagnostics on http://127.0.0.1:%d/_prestige/admin/stats", ports[0])

	notifier := make(chan os.Signal, 1)
	signal.Notify(notifier, syscall.SIGINT, syscall.SIGTERM)
	sig := <-notifier
	logger.Infof("received %s, shutting down", sig)
	signal.Stop(notifier)

	_ = server.Shutdown(ctx)
	_ = engine.Stop(ctx)
}
