package handlers

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/Rakhulsr/go-ecommerce-api/app/apperrors"
	"github.com/Rakhulsr/go-ecommerce-api/app/services"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

const maxUploadSize = 10 << 20

type ProductHandler struct {
	products *services.ProductService
	resp     *Responder
}

func NewProductHandler(products *services.ProductService, resp *Responder) *ProductHandler {
	return &ProductHandler{products: products, resp: resp}
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.ListProducts(r.Context())
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.OK(w, http.StatusOK, "products retrieved", products)
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	product, err := h.products.GetProduct(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.OK(w, http.StatusOK, "product retrieved", product)
}

func (h *ProductHandler) VendorProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.ListVendorProducts(r.Context(), userID(r))
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.OK(w, http.StatusOK, "products retrieved", products)
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	form, image, err := parseProductForm(r)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	if image != nil {
		defer image.close()
	}

	in := services.CreateProductInput{
		Name:        form.value("name"),
		Description: form.value("description"),
		Sizes:       form.sizes(),
	}
	if form.has("price") {
		in.Price = form.price()
	}
	if form.has("stock") {
		in.Stock = form.number("stock")
	}
	if len(form.errors) > 0 {
		h.resp.Error(w, r, apperrors.Validation("invalid input", form.errors))
		return
	}

	product, err := h.products.CreateProduct(r.Context(), userID(r), in, image.upload())
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.OK(w, http.StatusCreated, "product created", product)
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	form, image, err := parseProductForm(r)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	if image != nil {
		defer image.close()
	}

	var in services.UpdateProductInput
	if form.has("name") {
		name := form.value("name")
		in.Name = &name
	}
	if form.has("description") {
		description := form.value("description")
		in.Description = &description
	}
	if form.has("price") {
		price := form.price()
		in.Price = &price
	}
	if form.has("stock") {
		stock := form.number("stock")
		in.Stock = &stock
	}
	if form.has("sizes") {
		sizes := form.sizes()
		in.Sizes = &sizes
	}
	if len(form.errors) > 0 {
		h.resp.Error(w, r, apperrors.Validation("invalid input", form.errors))
		return
	}

	product, err := h.products.UpdateProduct(r.Context(), userID(r), mux.Vars(r)["id"], in, image.upload())
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.OK(w, http.StatusOK, "product updated", product)
}

func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.products.DeleteProduct(r.Context(), userID(r), mux.Vars(r)["id"]); err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.OK(w, http.StatusOK, "product deleted", nil)
}

type productForm struct {
	values map[string][]string
	errors map[string]string
}

func (f *productForm) has(key string) bool {
	_, ok := f.values[key]
	return ok
}

func (f *productForm) value(key string) string {
	if v := f.values[key]; len(v) > 0 {
		return strings.TrimSpace(v[0])
	}
	return ""
}

func (f *productForm) price() decimal.Decimal {
	price, err := decimal.NewFromString(f.value("price"))
	if err != nil {
		f.errors["price"] = "price must be a number"
	}
	return price
}

func (f *productForm) number(key string) int {
	n, err := strconv.Atoi(f.value(key))
	if err != nil {
		f.errors[key] = fmt.Sprintf("%s must be a whole number", key)
	}
	return n
}

// sizes accepts repeated fields or a single comma separated value.
func (f *productForm) sizes() []string {
	var sizes []string
	for _, v := range f.values["sizes"] {
		sizes = append(sizes, strings.Split(v, ",")...)
	}
	return sizes
}

type formImage struct {
	filename string
	file     multipart.File
}

func (i *formImage) upload() *services.Upload {
	if i == nil {
		return nil
	}
	return &services.Upload{Filename: i.filename, Body: i.file}
}

func (i *formImage) close() {
	_ = i.file.Close()
}

func parseProductForm(r *http.Request) (*productForm, *formImage, error) {
	err := r.ParseMultipartForm(maxUploadSize)
	if errors.Is(err, http.ErrNotMultipart) {
		err = r.ParseForm()
	}
	if err != nil {
		return nil, nil, apperrors.Validation("invalid form", map[string]string{"form": err.Error()})
	}

	form := &productForm{values: r.PostForm, errors: map[string]string{}}

	file, header, err := r.FormFile("image")
	switch {
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		return form, nil, nil
	case err != nil:
		return nil, nil, apperrors.Validation("invalid form", map[string]string{"image": err.Error()})
	}
	return form, &formImage{filename: header.Filename, file: file}, nil
}
