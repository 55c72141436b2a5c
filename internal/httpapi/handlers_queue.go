package httpapi

import "net/http"

type queueStatsView struct {
	Pending    int  `json:"pending"`
	InFlight   int  `json:"in_flight"`
	WithErrors int  `json:"with_errors"`
	Online     bool `json:"online"`
}

func (s *Server) handleQueueStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.queue.Stats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	online := true
	if s.monitor != nil {
		online = s.monitor.Online()
	}
	writeJSON(w, http.StatusOK, queueStatsView{
		Pending:    stats.Pending,
		InFlight:   stats.InFlight,
		WithErrors: stats.WithErrors,
		Online:     online,
	})
}

type drainResultView struct {
	Applied int `json:"applied"`
	Failed  int `json:"failed"`
	Parked  int `json:"parked"`
	Skipped int `json:"skipped"`
}

func (s *Server) handleQueueDrain(w http.ResponseWriter, r *http.Request) {
	result, err := s.queue.Drain(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, drainResultView{
		Applied: result.Applied,
		Failed:  result.Failed,
		Parked:  result.Parked,
		Skipped: result.Skipped,
	})
}

func (s *Server) handleQueueRetry(w http.ResponseWriter, r *http.Request) {
	if err := s.queue.RetryFailed(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
