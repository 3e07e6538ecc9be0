package server

import (
	"net/http"

	"github.com/a-h/templ"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/server/web"
)

func (s *Server) dashboardHandler(w http.ResponseWriter, r *http.Request) {
	habits, err := s.svc.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}

	a := s.svc.Analyzer()
	now := s.svc.Now()
	today := a.FormatDay(now)
	rows := make([]web.HabitRow, 0, len(habits))
	for _, h := range habits {
		rows = append(rows, web.HabitRow{
			Habit:    h,
			Stats:    a.Stats(h, now),
			Done:     h.HasCompletion(today),
			Calendar: a.Calendar(h.Completions, constants.CalendarDays28, now),
		})
	}

	templ.Handler(web.Dashboard(constants.AppName, today, rows)).ServeHTTP(w, r)
}
