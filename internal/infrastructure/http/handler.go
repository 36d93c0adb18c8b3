package httptransport

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"

	appauth "github.com/Zhima-Mochi/minishop-settlement/internal/application/auth"
	apporder "github.com/Zhima-Mochi/minishop-settlement/internal/application/order"
	appuser "github.com/Zhima-Mochi/minishop-settlement/internal/application/user"
	"github.com/Zhima-Mochi/minishop-settlement/internal/domain/inventory"
	domainOrder "github.com/Zhima-Mochi/minishop-settlement/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-settlement/internal/domain/payment"
	domainUser "github.com/Zhima-Mochi/minishop-settlement/internal/domain/user"
	"github.com/Zhima-Mochi/minishop-settlement/internal/infrastructure/media"
)

type Handler struct {
	orders   *apporder.Service
	users    *appuser.Service
	auth     *appauth.Service
	uploader *media.Uploader
	validate *validatorv10.Validate
}

func NewHandler(orders *apporder.Service, users *appuser.Service, auth *appauth.Service, uploader *media.Uploader) *Handler {
	return &Handler{
		orders:   orders,
		users:    users,
		auth:     auth,
		uploader: uploader,
		validate: validatorv10.New(),
	}
}

func (h *Handler) Register(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	r.POST("/api/auth/login", h.handleLogin)

	shop := r.Group("/api/shop", h.requireAuth)
	shop.POST("/orders", h.handleInitiateOrder)
	shop.POST("/orders/capture", h.handleSettlePayment)
	shop.GET("/orders/user/:userID", h.handleOrdersByUser)
	shop.GET("/orders/:id", h.handleOrderDetails)

	admin := r.Group("/api/admin", h.requireAdmin)
	admin.GET("/orders", h.handleAdminOrders)
	admin.GET("/orders/:id", h.handleOrderDetails)
	admin.PUT("/orders/:id/status", h.handleUpdateOrderStatus)
	admin.GET("/users", h.handleListUsers)
	admin.PUT("/users/:userID/role", h.handleUpdateUserRole)
	admin.DELETE("/users/:userID", h.handleDeleteUser)
	admin.POST("/upload", h.handleUpload)
}

type lineItemRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Title     string `json:"title" validate:"required"`
	Price     int64  `json:"price" validate:"required,gt=0"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
	Size      string `json:"size" validate:"required"`
}

type addressRequest struct {
	AddressID string `json:"addressId"`
	Address   string `json:"address" validate:"required"`
	City      string `json:"city" validate:"required"`
	Pincode   string `json:"pincode"`
	Phone     string `json:"phone"`
	Notes     string `json:"notes"`
}

type initiateOrderRequest struct {
	UserID      string            `json:"userId" validate:"required"`
	CartID      string            `json:"cartId"`
	CartItems   []lineItemRequest `json:"cartItems" validate:"required,min=1,dive"`
	AddressInfo addressRequest    `json:"addressInfo" validate:"required"`
}

func (h *Handler) handleInitiateOrder(c *gin.Context) {
	var req initiateOrderRequest
	if !h.bind(c, &req) {
		return
	}

	items := make([]domainOrder.LineItem, 0, len(req.CartItems))
	for _, it := range req.CartItems {
		items = append(items, domainOrder.LineItem{
			ProductID: it.ProductID,
			Title:     it.Title,
			Price:     it.Price,
			Quantity:  it.Quantity,
			Size:      it.Size,
		})
	}

	result, err := h.orders.InitiateOrder(c.Request.Context(), apporder.InitiateOrderInput{
		UserID: req.UserID,
		CartID: req.CartID,
		Items:  items,
		Address: domainOrder.Address{
			AddressID: req.AddressInfo.AddressID,
			Address:   req.AddressInfo.Address,
			City:      req.AddressInfo.City,
			Pincode:   req.AddressInfo.Pincode,
			Phone:     req.AddressInfo.Phone,
			Notes:     req.AddressInfo.Notes,
		},
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":     true,
		"orderId":     result.OrderID,
		"approvalURL": result.ApprovalURL,
	})
}

type settlePaymentRequest struct {
	OrderID   string `json:"orderId" validate:"required"`
	PaymentID string `json:"paymentId"`
	PayerID   string `json:"payerId" validate:"required"`
}

func (h *Handler) handleSettlePayment(c *gin.Context) {
	var req settlePaymentRequest
	if !h.bind(c, &req) {
		return
	}

	result, err := h.orders.SettlePayment(c.Request.Context(), apporder.SettlePaymentInput{
		OrderID:   req.OrderID,
		PaymentID: req.PaymentID,
		PayerID:   req.PayerID,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"orderStatus":    result.OrderStatus,
		"paymentStatus":  result.PaymentStatus,
		"paymentDetails": result.PaymentDetails,
	})
}

func (h *Handler) handleOrdersByUser(c *gin.Context) {
	orders, err := h.orders.ListByUser(c.Request.Context(), c.Param("userID"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": orders})
}

func (h *Handler) handleOrderDetails(c *gin.Context) {
	order, err := h.orders.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": order})
}

func (h *Handler) handleAdminOrders(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	orders, total, err := h.orders.ListAll(c.Request.Context(), domainOrder.ListFilter{
		Status: domainOrder.Status(c.Query("status")),
		Search: c.Query("search"),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    orders,
		"pagination": gin.H{
			"total":      total,
			"page":       page,
			"limit":      limit,
			"totalPages": totalPages,
		},
	})
}

type updateStatusRequest struct {
	OrderStatus string `json:"orderStatus" validate:"required,oneof=confirmed rejected"`
}

func (h *Handler) handleUpdateOrderStatus(c *gin.Context) {
	var req updateStatusRequest
	if !h.bind(c, &req) {
		return
	}
	if err := h.orders.UpdateStatus(c.Request.Context(), c.Param("id"), domainOrder.Status(req.OrderStatus)); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "order status updated"})
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) handleLogin(c *gin.Context) {
	var req loginRequest
	if !h.bind(c, &req) {
		return
	}
	token, u, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	c.SetCookie("token", token, int(12*3600), "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"token":   token,
		"user": gin.H{
			"id":       u.ID,
			"userName": u.UserName,
			"email":    u.Email,
			"role":     u.Role,
		},
	})
}

func (h *Handler) handleListUsers(c *gin.Context) {
	users, err := h.users.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]gin.H, 0, len(users))
	for _, u := range users {
		// Password hashes never leave the service.
		out = append(out, gin.H{
			"id":       u.ID,
			"userName": u.UserName,
			"email":    u.Email,
			"role":     u.Role,
		})
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "users": out})
}

type updateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=admin user"`
}

func (h *Handler) handleUpdateUserRole(c *gin.Context) {
	var req updateRoleRequest
	if !h.bind(c, &req) {
		return
	}
	role, err := domainUser.ParseRole(req.Role)
	if err != nil {
		writeError(c, err)
		return
	}
	u, err := h.users.UpdateRole(c.Request.Context(), c.Param("userID"), role)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": gin.H{
		"id":       u.ID,
		"userName": u.UserName,
		"email":    u.Email,
		"role":     u.Role,
	}})
}

func (h *Handler) handleDeleteUser(c *gin.Context) {
	if err := h.users.Delete(c.Request.Context(), c.Param("userID")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "user deleted"})
}

func (h *Handler) handleUpload(c *gin.Context) {
	if h.uploader == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "message": "media upload is not configured"})
		return
	}
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "file is required"})
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "could not read file"})
		return
	}

	result, err := h.uploader.Upload(c.Request.Context(), header.Filename, data)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "url": result.URL, "publicId": result.PublicID})
}

// bind decodes and validates a JSON body, writing the 400 itself so callers
// can just return on false.
func (h *Handler) bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid request body", "detail": err.Error()})
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "validation failed", "detail": err.Error()})
		return false
	}
	return true
}

func writeError(c *gin.Context, err error) {
	var (
		validationErr *apporder.ValidationError
		notApproved   *apporder.NotApprovedError
		unsettled     *apporder.CapturedUnsettledError
		gatewayErr    *payment.GatewayError
		uploadErr     *media.UploadError
	)

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "kind": "validation", "message": validationErr.Msg})
	case errors.As(err, &unsettled):
		// The dual-state hazard gets its own kind so operators can route it
		// to manual reconciliation instead of treating it as a retryable 500.
		c.JSON(http.StatusBadGateway, gin.H{
			"success":   false,
			"kind":      "captured_unsettled",
			"message":   unsettled.Error(),
			"orderId":   unsettled.OrderID,
			"paymentId": unsettled.PaymentID,
			"stage":     unsettled.Stage,
		})
	case errors.As(err, &notApproved):
		c.JSON(http.StatusPaymentRequired, gin.H{"success": false, "kind": "payment_not_approved", "state": notApproved.State})
	case errors.As(err, &gatewayErr):
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"kind":    "gateway",
			"message": gatewayErr.Message,
			"raw":     gatewayErr.Raw,
		})
	case errors.Is(err, domainOrder.ErrNotFound),
		errors.Is(err, inventory.ErrNotFound),
		errors.Is(err, domainUser.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "kind": "not_found", "message": err.Error()})
	case errors.Is(err, inventory.ErrInsufficientStock),
		errors.Is(err, domainOrder.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"success": false, "kind": "conflict", "message": err.Error()})
	case errors.Is(err, appauth.ErrInvalidCredentials),
		errors.Is(err, appauth.ErrInvalidToken),
		errors.Is(err, appauth.ErrTokenExpired):
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "kind": "unauthorized", "message": err.Error()})
	case errors.Is(err, domainUser.ErrInvalidRole):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "kind": "validation", "message": err.Error()})
	case errors.As(err, &uploadErr):
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "kind": "media", "message": uploadErr.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "kind": "internal", "message": err.Error()})
	}
}
