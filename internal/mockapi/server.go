// Package mockapi is an in-memory stand-in for the indent backend. It serves
// the master dropdowns, header creation and bulk item insertion.
package mockapi

import (
	"net/http"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"
)

// IDShape selects where header creation puts the new id in its response.
type IDShape int

const (
	ShapeID       IDShape = iota // {"id": n}
	ShapeIndentID                // {"indent_id": n}
	ShapeInstance                // {"instance": {"id": n}}
	ShapeNone                    // {"message": "..."} with no id
)

// Option is one dropdown entry
type Option struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Masters is the dropdown document
type Masters map[string][]Option

// Header is a stored indent header, kept as the raw JSON body plus its id.
type Header struct {
	ID     int
	Fields map[string]interface{}
}

// Item is a stored line item as posted.
type Item map[string]interface{}

// Server holds the in-memory backend state
type Server struct {
	mu      sync.Mutex
	masters Masters
	headers []Header
	items   []Item
	nextID  int
	shape   IDShape
	failing map[string]int // path -> status forced for every request
}

// ServerOption configures a Server
type ServerOption func(*Server)

// WithMasters replaces the seeded dropdown document.
func WithMasters(m Masters) ServerOption {
	return func(s *Server) { s.masters = m }
}

// WithIDShape selects the header creation response shape.
func WithIDShape(shape IDShape) ServerOption {
	return func(s *Server) { s.shape = shape }
}

// NewServer creates a backend with seeded masters
func NewServer(opts ...ServerOption) *Server {
	s := &Server{
		masters: SeedMasters(),
		nextID:  1,
		failing: map[string]int{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SeedMasters returns the default dropdown document.
func SeedMasters() Masters {
	return Masters{
		"companies":       {{ID: 1, Name: "Acme Industries"}, {ID: 2, Name: "Globex Ltd"}},
		"departments":     {{ID: 3, Name: "Stores"}, {ID: 4, Name: "Maintenance"}},
		"projects":        {{ID: 1, Name: "Plant Expansion"}},
		"Plants":          {{ID: 1, Name: "Pune Plant"}, {ID: 2, Name: "Mumbai Plant"}},
		"cost_categories": {{ID: 1, Name: "Consumables"}},
		"cost_centers":    {{ID: 1, Name: "CC-100 Production"}},
		"IndentItems":     {{ID: 7, Name: "Bolt M8"}, {ID: 8, Name: "Hex Nut M8"}},
		"Indentuom":       {{ID: 2, Name: "Nos"}, {ID: 3, Name: "Kg"}},
	}
}

// SetIDShape changes the creation response shape
func (s *Server) SetIDShape(shape IDShape) {
	s.mu.Lock()
	s.shape = shape
	s.mu.Unlock()
}

// Fail makes every request to path answer with status. A status of 0 clears it.
func (s *Server) Fail(path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == 0 {
		delete(s.failing, path)
		return
	}
	s.failing[path] = status
}

// Headers returns the stored headers
func (s *Server) Headers() []Header {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Header, len(s.headers))
	copy(out, s.headers)
	return out
}

// Items returns the stored line items
func (s *Server) Items() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Item, len(s.items))
	copy(out, s.items)
	return out
}

// Register mounts the backend routes on r.
func (s *Server) Register(r gin.IRouter) {
	api := r.Group("/api")
	api.Use(s.failure())
	{
		api.GET("/master-dropdowns/", s.getMasters)
		api.POST("/indent-create/", s.createIndent)
		api.POST("/insert-indent-items/", s.insertItems)
	}
}

// Router returns a gin engine with the backend routes and gin's recovery.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	s.Register(r)
	return r
}

func (s *Server) failure() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.mu.Lock()
		status := s.failing[c.Request.URL.Path]
		s.mu.Unlock()
		if status != 0 {
			c.AbortWithStatusJSON(status, gin.H{"error": http.StatusText(status)})
			return
		}
		c.Next()
	}
}

func (s *Server) getMasters(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.JSON(http.StatusOK, s.masters)
}

// requiredHeaderFields mirrors the fields the header form marks as required.
var requiredHeaderFields = []string{
	"cc_id", "is_local_indent", "indent_no", "indentdate",
	"departmentid", "indentername", "leadtime", "classificationtransaction",
}

func (s *Server) createIndent(c *gin.Context) {
	var input map[string]interface{}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}

	problems := gin.H{}
	for _, key := range requiredHeaderFields {
		if v, ok := input[key]; !ok || v == nil || v == "" {
			problems[key] = []string{"This field is required."}
		}
	}
	if len(problems) > 0 {
		c.JSON(http.StatusBadRequest, problems)
		return
	}

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.headers = append(s.headers, Header{ID: id, Fields: input})
	shape := s.shape
	s.mu.Unlock()

	switch shape {
	case ShapeIndentID:
		c.JSON(http.StatusCreated, gin.H{"indent_id": id})
	case ShapeInstance:
		c.JSON(http.StatusCreated, gin.H{"instance": gin.H{"id": id}})
	case ShapeNone:
		c.JSON(http.StatusCreated, gin.H{"message": "Indent created"})
	default:
		c.JSON(http.StatusCreated, gin.H{"id": id})
	}
}

func (s *Server) insertItems(c *gin.Context) {
	var rows []Item
	if err := c.ShouldBindJSON(&rows); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "expected a JSON array of items"})
		return
	}
	if len(rows) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no items"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, row := range rows {
		if !s.knownHeader(row["indentid"]) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown indentid", "row": i})
			return
		}
	}
	s.items = append(s.items, rows...)
	c.JSON(http.StatusCreated, gin.H{"message": "Items inserted", "count": len(rows)})
}

// knownHeader accepts the header id as a JSON number or a numeric string.
func (s *Server) knownHeader(v interface{}) bool {
	var id int
	switch x := v.(type) {
	case float64:
		id = int(x)
	case string:
		n, err := strconv.Atoi(x)
		if err != nil {
			return false
		}
		id = n
	default:
		return false
	}
	for _, h := range s.headers {
		if h.ID == id {
			return true
		}
	}
	return false
}
