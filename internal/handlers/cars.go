package handlers

import (
	"context"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/carbrainiac/apiserver/internal/apperr"
	"github.com/carbrainiac/apiserver/internal/events"
	"github.com/carbrainiac/apiserver/internal/images"
	"github.com/carbrainiac/apiserver/internal/services"
	"github.com/carbrainiac/apiserver/internal/validation"
	"github.com/carbrainiac/apiserver/types"
	"github.com/go-chi/chi/v5"
)

const (
	maxUploadFiles     = 20
	maxFileBytes       = 16 << 20
	maxMultipartMemory = 32 << 20

	uploadArea = "car-brainiac"

	defaultLimit  = 10
	defaultOffset = 0

	formFieldFiles = "files"
	formFieldName  = "name"
)

// CarHandler provides HTTP handlers for car listings.
type CarHandler struct {
	carService *services.CarService
	uploader   *images.Uploader
	events     *events.Events
}

// NewCarHandler constructs a CarHandler with the provided dependencies.
func NewCarHandler(carService *services.CarService, uploader *images.Uploader, publisher *events.Events) *CarHandler {
	return &CarHandler{
		carService: carService,
		uploader:   uploader,
		events:     publisher,
	}
}

// CarRouter registers car routes on the given router. Sellers manage
// listings; both roles browse them.
func CarRouter(
	r chi.Router,
	carService *services.CarService,
	uploader *images.Uploader,
	publisher *events.Events,
	requireSeller func(http.Handler) http.Handler,
	requireAnyRole func(http.Handler) http.Handler,
) {
	handler := NewCarHandler(carService, uploader, publisher)

	r.With(requireSeller).Post("/", handler.CreateCar)
	r.With(requireAnyRole).Get("/", handler.ListCars)
	r.Route("/{carID}", func(r chi.Router) {
		r.With(requireAnyRole).Get("/", handler.GetCar)
		r.With(requireSeller).Put("/", handler.UpdateCar)
		r.With(requireSeller).Delete("/", handler.DeleteCar)
	})
}

// CarUpsertRequest is the validated car payload shared by create and update.
type CarUpsertRequest struct {
	Make         string  `json:"make" validate:"required"`
	CarModel     string  `json:"carModel" validate:"required"`
	Year         int     `json:"year" validate:"required,gte=1900"`
	Mileage      int     `json:"mileage" validate:"gte=0"`
	Price        float64 `json:"price" validate:"gte=0"`
	Description  string  `json:"description" validate:"required,min=10,max=1000"`
	Availability bool    `json:"availability"`
}

func (req CarUpsertRequest) validate() error {
	if err := validation.Struct(req); err != nil {
		return err
	}
	if req.Year > time.Now().Year()+1 {
		return apperr.BadRequest("Year cannot be in the future")
	}
	return nil
}

func (req CarUpsertRequest) toCar() types.Car {
	return types.Car{
		Make:         req.Make,
		CarModel:     req.CarModel,
		Year:         req.Year,
		Mileage:      req.Mileage,
		Price:        req.Price,
		Description:  req.Description,
		Availability: req.Availability,
	}
}

// CreateCar creates a listing from a multipart form: car fields plus up to
// 20 image files. Images are validated and uploaded before anything is
// persisted, so a rejected batch leaves no partial document behind.
func (h *CarHandler) CreateCar(w http.ResponseWriter, r *http.Request) {
	identity, err := identityFromContext(r.Context())
	if err != nil {
		writeError(w, apperr.Forbidden("no token provided"))
		return
	}

	req, files, imageName, err := parseCarForm(r)
	if err != nil {
		writeError(w, err)
		return
	}

	urls, err := h.uploader.UploadBatch(r.Context(), uploadArea, imageName, files)
	if err != nil {
		writeError(w, err)
		return
	}

	car := req.toCar()
	car.SellerID = identity.ID
	car.Pictures = urls

	created, err := h.carService.Create(r.Context(), car)
	if err != nil {
		writeError(w, err)
		return
	}

	h.publishCreated(r.Context(), created)

	writeData(w, http.StatusCreated, "car created successfully", created.ID)
}

// ListCars returns one page of filtered listings plus the total count.
func (h *CarHandler) ListCars(w http.ResponseWriter, r *http.Request) {
	filter, err := parseCarFilter(r.URL.Query())
	if err != nil {
		writeError(w, err)
		return
	}
	if err := validation.CarFilter(filter); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.carService.GetAll(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, "cars fetched successfully", result)
}

// GetCar returns one listing with its seller populated.
func (h *CarHandler) GetCar(w http.ResponseWriter, r *http.Request) {
	car, err := h.carService.GetByID(r.Context(), chi.URLParam(r, "carID"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, "car fetched successfully", car)
}

// UpdateCar replaces the mutable fields of a listing. Only the seller who
// created the listing may change it.
func (h *CarHandler) UpdateCar(w http.ResponseWriter, r *http.Request) {
	carID := chi.URLParam(r, "carID")
	if err := h.checkOwnership(r, carID); err != nil {
		writeError(w, err)
		return
	}

	req, err := decodeCarJSON(r)
	if err != nil {
		writeError(w, err)
		return
	}

	updated, err := h.carService.Update(r.Context(), carID, req.toCar())
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, "car updated successfully", updated)
}

// DeleteCar removes a listing. Only the seller who created the listing may
// delete it.
func (h *CarHandler) DeleteCar(w http.ResponseWriter, r *http.Request) {
	carID := chi.URLParam(r, "carID")
	if err := h.checkOwnership(r, carID); err != nil {
		writeError(w, err)
		return
	}

	if err := h.carService.Delete(r.Context(), carID); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// checkOwnership loads the listing and verifies the authenticated seller
// owns it. Unknown or malformed ids surface as 404/400 before the
// ownership comparison.
func (h *CarHandler) checkOwnership(r *http.Request, carID string) error {
	identity, err := identityFromContext(r.Context())
	if err != nil {
		return apperr.Forbidden("no token provided")
	}

	car, err := h.carService.GetByID(r.Context(), carID)
	if err != nil {
		return err
	}
	if car.SellerID != identity.ID {
		return apperr.Forbidden("you do not own this listing")
	}
	return nil
}

func decodeCarJSON(r *http.Request) (CarUpsertRequest, error) {
	var req CarUpsertRequest
	if err := decodeJSON(r, &req); err != nil {
		return CarUpsertRequest{}, apperr.BadRequest("invalid request payload")
	}
	if err := req.validate(); err != nil {
		return CarUpsertRequest{}, err
	}
	return req, nil
}

func parseCarForm(r *http.Request) (CarUpsertRequest, []images.File, string, error) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		return CarUpsertRequest{}, nil, "", apperr.BadRequest("invalid multipart form")
	}

	year, err := parseFormInt(r, "year", "Year")
	if err != nil {
		return CarUpsertRequest{}, nil, "", err
	}
	mileage, err := parseFormInt(r, "mileage", "Mileage")
	if err != nil {
		return CarUpsertRequest{}, nil, "", err
	}
	price, err := parseFormFloat(r, "price", "Price")
	if err != nil {
		return CarUpsertRequest{}, nil, "", err
	}
	availability, err := parseFormBool(r, "availability")
	if err != nil {
		return CarUpsertRequest{}, nil, "", err
	}

	req := CarUpsertRequest{
		Make:         strings.TrimSpace(r.FormValue("make")),
		CarModel:     strings.TrimSpace(r.FormValue("carModel")),
		Year:         year,
		Mileage:      mileage,
		Price:        price,
		Description:  strings.TrimSpace(r.FormValue("description")),
		Availability: availability,
	}
	if err := req.validate(); err != nil {
		return CarUpsertRequest{}, nil, "", err
	}

	files, err := parseImageFiles(r)
	if err != nil {
		return CarUpsertRequest{}, nil, "", err
	}

	return req, files, strings.TrimSpace(r.FormValue(formFieldName)), nil
}

func parseImageFiles(r *http.Request) ([]images.File, error) {
	if r.MultipartForm == nil || len(r.MultipartForm.File[formFieldFiles]) == 0 {
		return nil, apperr.BadRequest("Please upload images for the car")
	}

	headers := r.MultipartForm.File[formFieldFiles]
	if len(headers) > maxUploadFiles {
		return nil, apperr.BadRequest("Too many files uploaded")
	}

	files := make([]images.File, 0, len(headers))
	for _, header := range headers {
		file, err := header.Open()
		if err != nil {
			return nil, apperr.BadRequest("failed to read uploaded file")
		}
		data, err := readFileLimited(file, maxFileBytes)
		_ = file.Close()
		if err != nil {
			return nil, apperr.BadRequest(err.Error())
		}
		files = append(files, images.File{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Data:        data,
		})
	}
	return files, nil
}

// parseCarFilter reads filter, sort, and pagination query parameters.
// Range bounds use bracket keys, e.g. year[min]=2010&price[max]=20000.
func parseCarFilter(query url.Values) (types.CarFilter, error) {
	filter := types.CarFilter{
		Make:     strings.TrimSpace(query.Get("make")),
		CarModel: strings.TrimSpace(query.Get("model")),
		Limit:    defaultLimit,
		Offset:   defaultOffset,
		SortBy:   strings.TrimSpace(query.Get("sortBy")),
		Order:    strings.TrimSpace(query.Get("order")),
	}
	if filter.Order == "" {
		filter.Order = types.OrderAsc
	}

	if raw := strings.TrimSpace(query.Get("availability")); raw != "" {
		value, err := strconv.ParseBool(raw)
		if err != nil {
			return types.CarFilter{}, apperr.BadRequest("Availability must be true or false")
		}
		filter.Availability = &value
	}

	var err error
	if filter.Year, err = parseRange(query, "year", true); err != nil {
		return types.CarFilter{}, err
	}
	if filter.Mileage, err = parseRange(query, "mileage", true); err != nil {
		return types.CarFilter{}, err
	}
	if filter.Price, err = parseRange(query, "price", false); err != nil {
		return types.CarFilter{}, err
	}

	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return types.CarFilter{}, apperr.BadRequest("Limit must be a number")
		}
		filter.Limit = limit
	}
	if raw := strings.TrimSpace(query.Get("offset")); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil {
			return types.CarFilter{}, apperr.BadRequest("Offset must be a number")
		}
		filter.Offset = offset
	}

	return filter, nil
}

func parseRange(query url.Values, field string, wholeNumber bool) (*types.Range, error) {
	min, err := parseRangeBound(query, field, "min", wholeNumber)
	if err != nil {
		return nil, err
	}
	max, err := parseRangeBound(query, field, "max", wholeNumber)
	if err != nil {
		return nil, err
	}
	if min == nil && max == nil {
		return nil, nil
	}
	return &types.Range{Min: min, Max: max}, nil
}

func parseRangeBound(query url.Values, field, bound string, wholeNumber bool) (*float64, error) {
	label := "Minimum"
	if bound == "max" {
		label = "Maximum"
	}

	raw := strings.TrimSpace(query.Get(field + "[" + bound + "]"))
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, apperr.BadRequest(label + " " + field + " must be a number")
	}
	if wholeNumber && value != math.Trunc(value) {
		return nil, apperr.BadRequest(label + " " + field + " must be a whole number")
	}
	return &value, nil
}

func parseFormInt(r *http.Request, field, label string) (int, error) {
	raw := strings.TrimSpace(r.FormValue(field))
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.BadRequest(label + " must be a number")
	}
	return value, nil
}

func parseFormFloat(r *http.Request, field, label string) (float64, error) {
	raw := strings.TrimSpace(r.FormValue(field))
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, apperr.BadRequest(label + " must be a number")
	}
	return value, nil
}

func parseFormBool(r *http.Request, field string) (bool, error) {
	raw := strings.TrimSpace(r.FormValue(field))
	if raw == "" {
		return false, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, apperr.BadRequest("Availability must be a boolean")
	}
	return value, nil
}

func (h *CarHandler) publishCreated(ctx context.Context, car types.Car) {
	err := h.events.PublishCarCreated(ctx, events.CarCreated{
		ID:       car.ID,
		SellerID: car.SellerID,
		Make:     car.Make,
		CarModel: car.CarModel,
		At:       time.Now(),
	})
	if err != nil {
		slog.Error("publish car.created failed", "error", err)
	}
}
