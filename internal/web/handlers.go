package web

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"riceMarketplace/internal/account"
	"riceMarketplace/internal/catalog"
	"riceMarketplace/models"
)

func (s *Server) index(c echo.Context) error {
	products, err := s.catalog.ListAll(c.Request().Context())
	if err != nil {
		return err
	}
	return c.Render(http.StatusOK, "index", &page{Title: "Rice for sale", Data: products})
}

func (s *Server) login(c echo.Context) error {
	next := safeNext(c.FormValue("next"))
	p := &page{Title: "Log in", Form: map[string]string{"next": next}}
	if c.Request().Method != http.MethodPost {
		return c.Render(http.StatusOK, "login", p)
	}

	var in account.LoginInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}
	p.Form["username"] = in.Username

	f, err := s.accounts.Login(c.Request().Context(), in)
	var ve *models.ValidationError
	switch {
	case errors.As(err, &ve):
		p.Errors = ve.Fields
		return c.Render(http.StatusOK, "login", p)
	case errors.Is(err, models.ErrInvalidCredentials):
		flashNow(c, flashError, "Invalid username or password")
		return c.Render(http.StatusOK, "login", p)
	case err != nil:
		return err
	}

	if err := s.startSession(c, f); err != nil {
		return err
	}
	flashNext(c, flashSuccess, "Logged in successfully!")
	return c.Redirect(http.StatusFound, next)
}

func (s *Server) register(c echo.Context) error {
	p := &page{Title: "Register", Form: map[string]string{}}
	if c.Request().Method != http.MethodPost {
		return c.Render(http.StatusOK, "register", p)
	}

	var in account.RegisterInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}
	p.Form["username"] = in.Username
	p.Form["role"] = in.Role

	_, err := s.accounts.Register(c.Request().Context(), in)
	var ve *models.ValidationError
	switch {
	case errors.As(err, &ve):
		p.Errors = ve.Fields
		return c.Render(http.StatusOK, "register", p)
	case errors.Is(err, models.ErrDuplicate):
		flashNow(c, flashError, "Username already exists. Please choose another.")
		return c.Render(http.StatusOK, "register", p)
	case err != nil:
		return err
	}

	flashNext(c, flashSuccess, "Registered successfully!")
	return c.Redirect(http.StatusFound, "/login")
}

func (s *Server) logout(c echo.Context) error {
	s.clearSession(c)
	flashNext(c, flashInfo, "Logged out.")
	return c.Redirect(http.StatusFound, "/")
}

func (s *Server) sellRice(c echo.Context) error {
	owner := currentAccount(c)
	if !owner.IsFarmer() {
		flashNext(c, flashError, "You must be a farmer to sell rice.")
		return c.Redirect(http.StatusFound, "/")
	}
	p := &page{Title: "Sell rice", Form: map[string]string{}}
	if c.Request().Method != http.MethodPost {
		return c.Render(http.StatusOK, "sell_rice", p)
	}

	var in catalog.ProductInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}
	p.Form["name"] = in.Name
	p.Form["description"] = in.Description
	p.Form["price"] = in.Price
	p.Form["quantity"] = in.Quantity

	var img *catalog.Image
	fh, err := c.FormFile("image")
	switch {
	case err == nil:
		src, err := fh.Open()
		if err != nil {
			return err
		}
		defer src.Close()
		img = &catalog.Image{Filename: fh.Filename, Body: src}
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "invalid upload")
	}

	_, err = s.catalog.Create(c.Request().Context(), owner, in, img)
	var ve *models.ValidationError
	switch {
	case errors.As(err, &ve):
		p.Errors = ve.Fields
		return c.Render(http.StatusOK, "sell_rice", p)
	case errors.Is(err, models.ErrForbidden):
		flashNext(c, flashError, "You must be a farmer to sell rice.")
		return c.Redirect(http.StatusFound, "/")
	case err != nil:
		return err
	}

	flashNext(c, flashSuccess, "Rice product added!")
	return c.Redirect(http.StatusFound, "/")
}

func (s *Server) productDetails(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	p, err := s.catalog.GetByID(c.Request().Context(), id)
	if errors.Is(err, models.ErrNotFound) {
		return echo.ErrNotFound
	}
	if err != nil {
		return err
	}
	return c.Render(http.StatusOK, "product_details", &page{Title: p.Name, Data: p})
}

func (s *Server) profile(c echo.Context) error {
	products, err := s.catalog.ListByOwner(c.Request().Context(), currentAccount(c))
	if errors.Is(err, models.ErrForbidden) {
		flashNext(c, flashError, "You must be a farmer to view this page.")
		return c.Redirect(http.StatusFound, "/")
	}
	if err != nil {
		return err
	}
	return c.Render(http.StatusOK, "profile", &page{Title: "My listings", Data: products})
}

func (s *Server) buyNow(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	co, err := s.catalog.Checkout(c.Request().Context(), currentAccount(c), id)
	switch {
	case errors.Is(err, models.ErrForbidden):
		flashNext(c, flashError, "Only buyers can make purchases.")
		return c.Redirect(http.StatusFound, "/")
	case errors.Is(err, models.ErrNotFound):
		return echo.ErrNotFound
	case err != nil:
		return err
	}
	return c.Render(http.StatusOK, "payment_page", &page{Title: "Payment", Data: co})
}

// pathID parses the :id route parameter; anything but a positive integer is a 404.
func pathID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.ErrNotFound
	}
	return id, nil
}
