package calculator

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// RegisterRoutes mounts all calculator endpoints onto the given router
// under the /calculator prefix. Request bodies are capped at bodyLimit.
func (a *API) RegisterRoutes(r chi.Router) {
	r.Route("/calculator", func(r chi.Router) {
		r.Use(middleware.RequestSize(a.bodyLimit()))

		r.Post("/evaluate", a.Evaluate)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", a.CreateSession)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", a.GetSession)
				r.Delete("/", a.DeleteSession)
				r.Post("/digit", a.AddDigit)
				r.Post("/decimal", a.AddDecimalSeparator)
				r.Post("/operator", a.AddOperator)
				r.Post("/calculate", a.Calculate)
				r.Post("/erase", a.Erase)
			})
		})
	})
}
