package emline

import (
	"testing"

	"github.com/cwbudde/algo-specfit/bins"
)

func benchSetup(b *testing.B, nbins, nlines int) (wave, logw, params, rests []float64) {
	b.Helper()

	centers := make([]float64, nbins)
	for i := range centers {
		centers[i] = 3600 + float64(i)*0.8
	}
	e, err := bins.NewEdges(centers, []bins.Segment{{Start: 0, End: nbins}})
	if err != nil {
		b.Fatalf("NewEdges: %v", err)
	}
	wave, logw = e.Camera(0)

	params = make([]float64, 3*nlines)
	rests = make([]float64, nlines)
	span := wave[nbins] - wave[0]
	for j := 0; j < nlines; j++ {
		rests[j] = wave[0] + span*float64(j+1)/float64(nlines+1)
		params[j] = 5           // amplitude
		params[nlines+j] = 10   // vshift
		params[2*nlines+j] = 80 // sigma
	}
	return wave, logw, params, rests
}

func BenchmarkBuildModel(b *testing.B) {
	wave, logw, params, rests := benchSetup(b, 4000, 30)
	dst := make([]float64, len(wave)-1)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		BuildModel(dst, params, wave, logw, 0.02, rests)
	}
}

func BenchmarkBuildJacobian(b *testing.B) {
	wave, logw, params, rests := benchSetup(b, 4000, 30)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = BuildJacobian(params, nil, wave, logw, 0.02, rests)
	}
}
