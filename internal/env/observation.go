package env

import (
	"gonum.org/v1/gonum/mat"

	"github.com/ascent-robotics/dronegym/internal/sim"
)

// Observation layout: row 0 is the drone position, rows 1..80 are LiDAR
// return points. The shape is always exactly ObservationRows×ObservationCols
// regardless of how many points the sensor produced.
const (
	ObservationRows = 81
	ObservationCols = 3

	// lidarPointCount is the fixed number of LiDAR rows in an observation.
	lidarPointCount = ObservationRows - 1
)

// buildObservation assembles the 81×3 observation from a vehicle position and
// a flat x,y,z point buffer. Clouds with fewer than 80 points are zero-padded;
// larger clouds are truncated to the first 80. A trailing partial triple in
// the buffer is dropped.
func buildObservation(pos sim.Vector3, cloud []float32) *mat.Dense {
	obs := mat.NewDense(ObservationRows, ObservationCols, nil)
	obs.SetRow(0, pos.Slice())

	points := len(cloud) / 3
	if points > lidarPointCount {
		points = lidarPointCount
	}
	for i := 0; i < points; i++ {
		obs.Set(i+1, 0, float64(cloud[i*3]))
		obs.Set(i+1, 1, float64(cloud[i*3+1]))
		obs.Set(i+1, 2, float64(cloud[i*3+2]))
	}
	// Remaining rows stay zero: mat.NewDense with a nil backing slice is
	// zero-initialised, which provides the padding.
	return obs
}

// dronePosition extracts the vehicle position row from an observation.
func dronePosition(obs *mat.Dense) []float64 {
	return obs.RawRowView(0)
}
