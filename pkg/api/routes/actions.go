package routes

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/travigo/livetreinen/pkg/ctdf"
	"github.com/travigo/livetreinen/pkg/dataaggregator"
	"github.com/travigo/livetreinen/pkg/dataaggregator/query"
	"github.com/travigo/livetreinen/pkg/dataaggregator/source/cachedresults"
	"github.com/travigo/livetreinen/pkg/dataaggregator/source/ns"
	"github.com/travigo/livetreinen/pkg/nsapi"
)

var actions = map[string]fiber.Handler{
	"getData":          getData,
	"getJourney":       getJourney,
	"getStations":      getStations,
	"getTrainStats":    getTrainStats,
	"getCacheStats":    getCacheStats,
	"resetCacheStats":  resetCacheStats,
	"refreshTrainData": refreshTrainData,
	"checkCache":       checkCache,
}

func ActionRouter(router fiber.Router) {
	router.Get("/", dispatchAction)
}

func dispatchAction(c *fiber.Ctx) error {
	handler, ok := actions[c.Query("action")]
	if !ok {
		return IndexPage(c)
	}

	return handler(c)
}

func getData(c *fiber.Ctx) error {
	positionsQuery := query.TrainPositions{
		TrainID: c.Query("trainId"),
	}

	if filter := c.Query("filter"); filter != "" {
		program, err := ns.CompileFilter(filter)
		if err != nil {
			return badRequest(c, "Invalid filter: "+err.Error())
		}
		positionsQuery.Filter = program
	}

	trains, err := dataaggregator.Lookup[[]*ctdf.TrainPosition](c.UserContext(), positionsQuery)

	return respond(c, trains, err)
}

func getJourney(c *fiber.Ctx) error {
	trainNumber := c.Query("train")
	if trainNumber == "" {
		return badRequest(c, "No train number given")
	}

	journey, err := dataaggregator.Lookup[*ctdf.JourneyDetail](c.UserContext(), query.JourneyDetails{
		TrainNumber: trainNumber,
	})

	return respond(c, journey, err)
}

func getStations(c *fiber.Ctx) error {
	stations, err := dataaggregator.Lookup[[]*ctdf.Station](c.UserContext(), query.Stations{
		StationCode: c.Query("stationCode"),
	})

	return respond(c, stations, err)
}

func getTrainStats(c *fiber.Ctx) error {
	trainID := c.Query("trainId")
	if trainID == "" {
		return badRequest(c, "No train id given")
	}

	stats, err := dataaggregator.Lookup[*ctdf.TrainStats](c.UserContext(), query.TrainStats{
		TrainID: trainID,
	})

	return respond(c, stats, err)
}

func getCacheStats(c *fiber.Ctx) error {
	stats, err := dataaggregator.Lookup[*cachedresults.StatsSnapshot](c.UserContext(), query.CacheStats{})

	return respond(c, stats, err)
}

func resetCacheStats(c *fiber.Ctx) error {
	previous, err := dataaggregator.Lookup[*cachedresults.StatsSnapshot](c.UserContext(), query.CacheStats{
		Reset: true,
	})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"message":  "Cache statistics reset",
		"previous": previous,
	})
}

func refreshTrainData(c *fiber.Ctx) error {
	trainNumber := c.Query("train")
	if trainNumber == "" {
		return badRequest(c, "No train number given")
	}

	result, err := dataaggregator.Lookup[*ctdf.CacheRefresh](c.UserContext(), query.RefreshTrain{
		TrainNumber: trainNumber,
	})

	return respond(c, result, err)
}

func checkCache(c *fiber.Ctx) error {
	trainNumber := c.Query("train")
	if trainNumber == "" {
		return badRequest(c, "No train number given")
	}

	status, err := dataaggregator.Lookup[*ctdf.CacheStatus](c.UserContext(), query.CacheStatus{
		TrainNumber: trainNumber,
	})

	return respond(c, status, err)
}

// respond writes upstream failures as a normal 200 JSON body, anything else goes to the error handler
func respond(c *fiber.Ctx, value any, err error) error {
	if err != nil {
		var apiErr *nsapi.APIError
		if errors.As(err, &apiErr) {
			return c.JSON(apiErr)
		}

		return err
	}

	return c.JSON(value)
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
		Error:      true,
		Message:    message,
		StatusCode: fiber.StatusBadRequest,
	})
}

type ErrorResponse struct {
	Error      bool   `json:"error"`
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode"`
}
