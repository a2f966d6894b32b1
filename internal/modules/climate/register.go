package climate

import (
	"log/slog"
	"net/http"

	"climate-server/internal/modules/climate/controller"
	"climate-server/internal/modules/climate/repository"
	"climate-server/internal/modules/climate/service"
)

func RegisterFeature(mux *http.ServeMux, repo repository.ClimateRepository, logger *slog.Logger) {
	climateService := service.NewService(repo, logger)
	climateController := controller.NewClimateController(climateService, logger)
	climateController.RegisterRoutes(mux)
}
