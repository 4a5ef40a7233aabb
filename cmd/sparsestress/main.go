// Command sparsestress randomly churns a set of sparse-set-backed stores
// and reports timing and memory behavior.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/nullpage/sparseset/ecs"
)

type position struct{ X, Y float64 }
type tag string

func main() {
	duration := flag.Duration("duration", 5*time.Second, "how long to run the churn loop")
	entityCount := flag.Int("entities", 20000, "initial number of entities to populate")
	verbose := flag.Bool("verbose", false, "enable debug logging, including iteration-guard trips")
	flag.Parse()

	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	log.Info().Int("entities", *entityCount).Dur("duration", *duration).Msg("starting sparse-set stress run")

	positions := ecs.NewDenseStore[position]()
	tags := ecs.NewSharedStore[tag]()
	teams := ecs.NewGroupedStore[tag]()

	tagPool := []tag{"alpha", "beta", "gamma", "delta"}

	for i := 1; i <= *entityCount; i++ {
		e := ecs.Entity(i)
		_ = positions.Set(e, position{X: rand.Float64() * 1000, Y: rand.Float64() * 1000})
		_ = tags.Set(e, tagPool[rand.Intn(len(tagPool))])
		if i == 1 {
			_ = teams.Set(e, tagPool[rand.Intn(len(tagPool))])
		} else {
			parent := ecs.Entity(rand.Intn(i-1) + 1)
			if teams.Contains(parent) {
				_ = teams.LinkTo(e, parent)
			} else {
				_ = teams.Set(e, tagPool[rand.Intn(len(tagPool))])
			}
		}
	}

	report := &Report{
		Duration: *duration,
		Entities: *entityCount,
		ChurnOp:  Stats{},
	}
	runtime.ReadMemStats(&report.MemStatsStart)

	next := *entityCount + 1
	deadline := time.Now().Add(*duration)
	start := time.Now()
	var ops int64

	for time.Now().Before(deadline) {
		opStart := time.Now()
		churnOnce(positions, tags, teams, &next, tagPool)
		report.ChurnOp.Samples = append(report.ChurnOp.Samples, time.Since(opStart))
		ops++
	}

	report.TotalTime = time.Since(start)
	report.TotalOps = ops
	report.ChurnOp.Finalize()
	report.FinalEntities = positions.Len()
	report.PageStats = fmt.Sprintf("%d live / %d total", positions.Indices().LivePageCount(), positions.Indices().PageCount())
	runtime.ReadMemStats(&report.MemStatsEnd)

	fmt.Println()
	if err := report.Generate(os.Stdout); err != nil {
		log.Fatal().Err(err).Msg("failed to generate report")
	}

	joined, err := ecs.NewJoinIterator(ecs.AnyOf(tags, teams))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build join iterator")
	}
	count := 0
	for range joined.Iterate() {
		count++
	}
	log.Info().Int("matched", count).Msg("sample join over tags or teams")
}

// churnOnce performs one randomized insert, update, or removal across the
// three store kinds, keeping them mutually consistent: every entity
// touched exists in positions, which is the source of truth for which
// ids are live.
func churnOnce(positions *ecs.DenseStore[position], tags *ecs.SharedStore[tag], teams *ecs.GroupedStore[tag], next *int, tagPool []tag) {
	switch rand.Intn(3) {
	case 0:
		e := ecs.Entity(*next)
		*next++
		_ = positions.Set(e, position{X: rand.Float64() * 1000, Y: rand.Float64() * 1000})
		_ = tags.Set(e, tagPool[rand.Intn(len(tagPool))])
		_ = teams.Set(e, tagPool[rand.Intn(len(tagPool))])
	case 1:
		if positions.IsEmpty() {
			return
		}
		victim := randomMember(positions.Indices())
		_, _ = positions.Remove(victim)
		if tags.Contains(victim) {
			_, _ = tags.Remove(victim)
		}
		if teams.Contains(victim) {
			_, _ = teams.Remove(victim)
		}
	default:
		if positions.IsEmpty() {
			return
		}
		e := randomMember(positions.Indices())
		_ = positions.Set(e, position{X: rand.Float64() * 1000, Y: rand.Float64() * 1000})
	}
}

func randomMember(set *ecs.SparseSet) ecs.Entity {
	packed := set.Packed()
	return packed[rand.Intn(len(packed))]
}
