package influx

import (
	"fmt"
	"time"
)

// fluxDuration renders d as a Flux duration literal in whole seconds.
func fluxDuration(d time.Duration) string {
	return fmt.Sprintf("%ds", int64(d/time.Second))
}

// buildListFlux returns the distinct plant ids seen within window.
func buildListFlux(cfg Config) string {
	return fmt.Sprintf(`
from(bucket: %q)
  |> range(start: -%s)
  |> filter(fn: (r) => r._measurement == %q)
  |> keep(columns: [%q])
  |> group()
  |> distinct(column: %q)
  |> sort()
`, cfg.Bucket, fluxDuration(cfg.ListWindow), cfg.Measurement, cfg.PlantTag, cfg.PlantTag)
}

// buildSnapshotFlux returns the latest value of every field of plantID within window.
func buildSnapshotFlux(cfg Config, plantID string) string {
	return fmt.Sprintf(`
from(bucket: %q)
  |> range(start: -%s)
  |> filter(fn: (r) => r._measurement == %q and r[%q] == %q)
  |> last()
`, cfg.Bucket, fluxDuration(cfg.SnapshotWindow), cfg.Measurement, cfg.PlantTag, plantID)
}
