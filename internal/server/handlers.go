package server

import (
	"fmt"
	"net/http"
	"strconv"
	"unicode/utf8"

	"github.com/labstack/echo/v4"

	"github.com/dshills/chatgraph/chat"
	"github.com/dshills/chatgraph/graph"
	"github.com/dshills/chatgraph/graph/model"
)

// maxFib caps /fib so a request cannot pin a CPU indefinitely.
const maxFib = 30

// userCount is the size of the /users listing.
const userCount = 100

// User is the payload of the user endpoints.
type User struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type echoRequest struct {
	Text *string `json:"text"`
}

type echoResponse struct {
	Received string `json:"received"`
	Length   int    `json:"length"`
}

type fibResponse struct {
	N      int `json:"n"`
	Result int `json:"result"`
}

// ChatRequest is the body of POST /chat and POST /chat/mock.
type ChatRequest struct {
	Message *string `json:"message"`
}

// ChatResponse carries the content of the final conversation message.
type ChatResponse struct {
	Response string `json:"response"`
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) getUser(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "id must be an integer")
	}
	return c.JSON(http.StatusOK, User{ID: id, Name: "John Doe", Email: "john@example.com"})
}

func (s *Server) echoText(c echo.Context) error {
	var req echoRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if req.Text == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "text is required")
	}
	return c.JSON(http.StatusOK, echoResponse{
		Received: *req.Text,
		Length:   utf8.RuneCountInString(*req.Text),
	})
}

func (s *Server) fibonacci(c echo.Context) error {
	n, err := strconv.Atoi(c.Param("n"))
	if err != nil || n < 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "n must be a non-negative integer")
	}
	return c.JSON(http.StatusOK, fibResponse{N: n, Result: fib(min(n, maxFib))})
}

// fib is deliberately the exponential recursive form: the endpoint
// exists to generate CPU load.
func fib(n int) int {
	if n <= 1 {
		return n
	}
	return fib(n-1) + fib(n-2)
}

func (s *Server) listUsers(c echo.Context) error {
	users := make([]User, userCount)
	for i := range users {
		users[i] = User{
			ID:    i,
			Name:  fmt.Sprintf("User %d", i),
			Email: fmt.Sprintf("user%d@example.com", i),
		}
	}
	return c.JSON(http.StatusOK, users)
}

// chatHandler runs the request message through g as a single user turn
// and returns the content of the final message.
func (s *Server) chatHandler(g Invoker) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req ChatRequest
		if err := c.Bind(&req); err != nil {
			return err
		}
		if req.Message == nil {
			return echo.NewHTTPError(http.StatusBadRequest, "message is required")
		}
		if *req.Message == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "message must not be empty")
		}

		ctx := c.Request().Context()
		if id := c.Response().Header().Get(echo.HeaderXRequestID); id != "" {
			ctx = graph.ContextWithRunID(ctx, id)
		}

		final, err := g.Invoke(ctx, chat.NewState(model.UserMessage(*req.Message)))
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, ChatResponse{Response: final.Reply()})
	}
}
