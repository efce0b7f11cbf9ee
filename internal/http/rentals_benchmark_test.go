package httpserver

import (
	"fmt"
	"net/http"
	"testing"
)

func BenchmarkHandleGetRental(b *testing.B) {
	srv := buildTestServer(b)
	user := srv.mustUser(b, "bench", false)
	movieID := srv.mustMovie(b, "Benchmark Movie")
	rental := srv.mustRent(b, user, movieID)
	path := fmt.Sprintf("/rentals/%d/", rental.ID)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rec := srv.do(http.MethodGet, path, user, "")
		if rec.Code != http.StatusOK {
			b.Fatalf("unexpected status %d", rec.Code)
		}
	}
}
