package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Laisky/multilingual-news/internal/web/news/dto"
	"github.com/Laisky/multilingual-news/internal/web/news/model"
	"github.com/Laisky/multilingual-news/internal/web/news/service"
)

func (c *Controller) writeCities(ctx *gin.Context, cities []*model.City) {
	if wantRaw(ctx) {
		ctx.JSON(http.StatusOK, cities)
		return
	}
	ctx.JSON(http.StatusOK, mapSlice(cities, c.localizer(ctx).City))
}

func (c *Controller) writeAreas(ctx *gin.Context, areas []*model.Area) {
	if wantRaw(ctx) {
		ctx.JSON(http.StatusOK, areas)
		return
	}
	ctx.JSON(http.StatusOK, mapSlice(areas, c.localizer(ctx).Area))
}

func (c *Controller) writeArea(ctx *gin.Context, area *model.Area) {
	if wantRaw(ctx) {
		ctx.JSON(http.StatusOK, area)
		return
	}
	ctx.JSON(http.StatusOK, c.localizer(ctx).Area(area))
}

func (c *Controller) listCities(ctx *gin.Context) {
	cities, err := c.svc.Locations.Cities(ctx, activeOnly(ctx))
	if err != nil {
		abortErr(ctx, err)
		return
	}
	c.writeCities(ctx, cities)
}

func (c *Controller) nearbyCities(ctx *gin.Context) {
	var q nearQuery
	if !bindQuery(ctx, &q) {
		return
	}

	cities, err := c.svc.Locations.NearbyCities(ctx, q.near())
	if err != nil {
		abortErr(ctx, err)
		return
	}
	c.writeCities(ctx, cities)
}

func (c *Controller) getCity(ctx *gin.Context) {
	city, err := c.svc.Locations.City(ctx, ctx.Param("id"))
	if err != nil {
		abortErr(ctx, err)
		return
	}

	if wantRaw(ctx) {
		ctx.JSON(http.StatusOK, city)
		return
	}
	ctx.JSON(http.StatusOK, c.localizer(ctx).City(city))
}

func (c *Controller) createCity(ctx *gin.Context) {
	var in dto.CityInput
	if !bindJSON(ctx, &in) {
		return
	}

	city, err := c.svc.Locations.CreateCity(ctx, &in)
	if err != nil {
		abortErr(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, city)
}

func (c *Controller) updateCity(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	var in dto.CityInput
	if !bindJSON(ctx, &in) {
		return
	}

	city, err := c.svc.Locations.UpdateCity(ctx, id, &in)
	if err != nil {
		abortErr(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, city)
}

func (c *Controller) deleteCity(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	if err := c.svc.Locations.DeleteCity(ctx, id); err != nil {
		abortErr(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

func (c *Controller) cityAreas(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	areas, err := c.svc.Locations.Areas(ctx, id, activeOnly(ctx))
	if err != nil {
		abortErr(ctx, err)
		return
	}
	c.writeAreas(ctx, areas)
}

func (c *Controller) getArea(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	area, err := c.svc.Locations.Area(ctx, id)
	if err != nil {
		abortErr(ctx, err)
		return
	}
	c.writeArea(ctx, area)
}

type nearbyAreasQuery struct {
	nearQuery
	City string `form:"city" binding:"omitempty,objectid"`
}

func (c *Controller) nearbyAreas(ctx *gin.Context) {
	var q nearbyAreasQuery
	if !bindQuery(ctx, &q) {
		return
	}

	var city *primitive.ObjectID
	if q.City != "" {
		id, err := service.ParseID("city", q.City)
		if err != nil {
			abortErr(ctx, err)
			return
		}
		city = &id
	}

	areas, err := c.svc.Locations.NearbyAreas(ctx, q.near(), city)
	if err != nil {
		abortErr(ctx, err)
		return
	}
	c.writeAreas(ctx, areas)
}

func (c *Controller) locateArea(ctx *gin.Context) {
	var q nearQuery
	if !bindQuery(ctx, &q) {
		return
	}

	area, err := c.svc.Locations.Locate(ctx, *q.Lng, *q.Lat)
	if err != nil {
		abortErr(ctx, err)
		return
	}
	c.writeArea(ctx, area)
}

func (c *Controller) createArea(ctx *gin.Context) {
	var in dto.AreaInput
	if !bindJSON(ctx, &in) {
		return
	}

	area, err := c.svc.Locations.CreateArea(ctx, &in)
	if err != nil {
		abortErr(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, area)
}

func (c *Controller) updateArea(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	var in dto.AreaInput
	if !bindJSON(ctx, &in) {
		return
	}

	area, err := c.svc.Locations.UpdateArea(ctx, id, &in)
	if err != nil {
		abortErr(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, area)
}

func (c *Controller) deleteArea(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	if err := c.svc.Locations.DeleteArea(ctx, id); err != nil {
		abortErr(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}
