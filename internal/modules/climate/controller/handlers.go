package controller

import (
	"bytes"
	"net/http"

	"climate-server/internal/modules/climate/views"
	"climate-server/internal/utils"
)

func (c *climateControllerImpl) handleIndex(w http.ResponseWriter, r *http.Request) {
	routes := c.service.Routes()
	links := make([]views.RouteLink, 0, len(routes))
	for _, rt := range routes {
		links = append(links, views.RouteLink{Path: rt.Path, Description: rt.Description})
	}

	var buf bytes.Buffer
	if err := views.RenderIndex(&buf, &views.IndexData{Title: "Climate API", Routes: links}); err != nil {
		c.logger.Error("index template render failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to render page")
		return
	}
	utils.WriteHTML(w, http.StatusOK, buf.Bytes())
}

func (c *climateControllerImpl) handlePrecipitation(w http.ResponseWriter, r *http.Request) {
	byDate, err := c.service.PrecipitationLastYear(r.Context())
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, byDate)
}

func (c *climateControllerImpl) handleStations(w http.ResponseWriter, r *http.Request) {
	names, err := c.service.StationNames(r.Context())
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, names)
}

func (c *climateControllerImpl) handleTobs(w http.ResponseWriter, r *http.Request) {
	obs, err := c.service.MostActiveStationObservations(r.Context())
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, obs)
}

func (c *climateControllerImpl) handleStatsFrom(w http.ResponseWriter, r *http.Request) {
	stats, err := c.service.TemperatureStatsFrom(r.Context(), r.PathValue("start"))
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, stats)
}

func (c *climateControllerImpl) handleStatsRange(w http.ResponseWriter, r *http.Request) {
	stats, err := c.service.TemperatureStatsRange(r.Context(), r.PathValue("start"), r.PathValue("end"))
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, stats)
}
