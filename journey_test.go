package trainkf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeLog(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadJourneyLogTSV(t *testing.T) {
	path := writeLog(t, "run-0017.tsv",
		"# freight run 17\n"+
			"time\tspeed\tnotch\tbrake\tdistance\tenergy\n"+
			"0\t36\t4\t0\t0\t1000\n"+
			"1\t37.8\t4\t0\t10.2\t1663\n"+
			"2\t38\t0\t0.3\t20.8\t1663\n")
	p := testParams(t)
	log, err := LoadJourneyLog(path, p)
	require.NoError(t, err)
	require.Equal(t, "run-0017", log.ID)
	require.Len(t, log.Observations, 3)

	// 36 km/h is 10 m/s, notch 4 is half effort.
	require.InDelta(t, 10, log.Observations[0].Speed, 1e-9)
	require.Equal(t, 0.5, log.Observations[0].Control)
	// Brake without a notch maps to negative effort.
	require.Equal(t, -0.3, log.Observations[2].Control)
	// Gradient force stays zero until a profile is attached.
	require.Zero(t, log.Observations[1].GradientForce)

	require.Equal(t, []float64{0, 10.2, 20.8}, log.Distance)
	require.Equal(t, []float64{1000, 1663, 1663}, log.Energy)
	require.Equal(t, 1000.0, log.InitialEnergy())
}

func TestLoadJourneyLogCSVWithoutEnergy(t *testing.T) {
	path := writeLog(t, "run-0018.csv",
		"time,speed,notch,brake,distance\n"+
			"0,18,2,0,0\n"+
			"1,18.5,2,0,5.1\n")
	log, err := LoadJourneyLog(path, testParams(t))
	require.NoError(t, err)
	require.Nil(t, log.Energy)
	require.Zero(t, log.InitialEnergy())
	require.InDelta(t, 5, log.Observations[0].Speed, 1e-9)
	require.Equal(t, 0.25, log.Observations[0].Control)
}

func TestLoadJourneyLogMissingColumn(t *testing.T) {
	path := writeLog(t, "bad.csv", "time,speed,notch,distance\n0,36,4,0\n")
	_, err := LoadJourneyLog(path, testParams(t))
	require.ErrorContains(t, err, "brake")
}

func TestLoadJourneyLogBadField(t *testing.T) {
	path := writeLog(t, "bad.csv",
		"time,speed,notch,brake,distance\n"+
			"0,36,4,0,0\n"+
			"1,oops,4,0,10\n")
	_, err := LoadJourneyLog(path, testParams(t))
	require.ErrorContains(t, err, "row 2")
}

func TestLoadJourneyLogNonFiniteField(t *testing.T) {
	path := writeLog(t, "bad.csv",
		"time,speed,notch,brake,distance\n"+
			"0,NaN,4,0,0\n")
	_, err := LoadJourneyLog(path, testParams(t))
	require.ErrorIs(t, err, ErrMalformedObservation)
}

func TestLoadJourneyLogEmpty(t *testing.T) {
	path := writeLog(t, "empty.csv", "time,speed,notch,brake,distance\n")
	_, err := LoadJourneyLog(path, testParams(t))
	require.ErrorContains(t, err, "no records")
}

func TestAttachGradient(t *testing.T) {
	p := testParams(t)
	// 10 m drop over 1 km.
	profile, err := NewElevationProfile([]float64{0, 1000}, []float64{110, 100})
	require.NoError(t, err)
	path := writeLog(t, "run.csv",
		"time,speed,notch,brake,distance\n"+
			"0,36,4,0,600\n"+
			"1,36.5,4,0,650\n")
	log, err := LoadJourneyLog(path, p)
	require.NoError(t, err)
	log.AttachGradient(profile, p)
	for _, o := range log.Observations {
		require.Positive(t, o.GradientForce, "downhill run must push the train forward")
	}
}
