package devserver

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/pamojavote/pamoja-go/models"
)

// paginate answers with the page-number envelope. next and previous are
// absolute URLs carrying the other query parameters of the request.
func paginate[T any](c echo.Context, items []T) error {
	page, err := strconv.Atoi(c.QueryParam("page"))
	if err != nil || page < 1 {
		page = 1
	}

	out := models.Page[T]{Count: len(items), Results: []T{}}
	start := (page - 1) * defaultPageSize
	if start >= len(items) && page > 1 {
		return notFound()
	}
	if start < len(items) {
		end := min(start+defaultPageSize, len(items))
		out.Results = items[start:end]
		if end < len(items) {
			out.Next = pageURL(c, page+1)
		}
	}
	if page > 1 {
		out.Previous = pageURL(c, page-1)
	}
	return c.JSON(http.StatusOK, out)
}

func pageURL(c echo.Context, page int) string {
	req := c.Request()
	u := *req.URL
	u.Scheme = c.Scheme()
	u.Host = req.Host

	query := u.Query()
	if page == 1 {
		query.Del("page")
	} else {
		query.Set("page", strconv.Itoa(page))
	}
	u.RawQuery = query.Encode()
	return u.String()
}

// list answers with a bare JSON array, never null.
func list[T any](c echo.Context, items []T) error {
	if items == nil {
		items = []T{}
	}
	return c.JSON(http.StatusOK, items)
}
