package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/cors"
)

// CORS applies the cross-origin policy for the given origins. No origins
// allows any origin without credentials.
func CORS(origins []string) gin.HandlerFunc {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-API-Key", RequestIDHeader},
		ExposedHeaders:   []string{RequestIDHeader},
		AllowCredentials: origins[0] != "*",
		MaxAge:           300,
	})

	return func(ctx *gin.Context) {
		called := false
		c.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
			ctx.Request = r
		})).ServeHTTP(ctx.Writer, ctx.Request)

		// Preflight requests are answered by the cors handler itself
		if !called {
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}
