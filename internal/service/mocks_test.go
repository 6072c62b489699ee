package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"storefront/internal/domain"
	"storefront/internal/mail"
	"storefront/internal/pagination"
	"storefront/internal/payment"
	"storefront/internal/realtime"
	"storefront/internal/repository"
	"storefront/internal/storage"

	"github.com/google/uuid"
)

// Mock repositories for testing
type mockUserRepository struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{
		users: make(map[string]*domain.User),
	}
}

func (m *mockUserRepository) put(user *domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.Email] = user
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.users[user.Email]; exists {
		return repository.ErrUserAlreadyExists
	}
	m.users[user.Email] = user
	return nil
}

func (m *mockUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, exists := m.users[strings.ToLower(email)]
	if !exists {
		return nil, repository.ErrUserNotFound
	}
	return user, nil
}

func (m *mockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockUserRepository) UpdateProfile(ctx context.Context, user *domain.User) error {
	if _, err := m.FindByID(ctx, user.ID); err != nil {
		return err
	}
	m.put(user)
	return nil
}

func (m *mockUserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	user, err := m.FindByID(ctx, id)
	if err != nil {
		return err
	}
	m.mu.Lock()
	user.PasswordHash = passwordHash
	m.mu.Unlock()
	return nil
}

func (m *mockUserRepository) UpdateRole(ctx context.Context, id uuid.UUID, role string) error {
	user, err := m.FindByID(ctx, id)
	if err != nil {
		return err
	}
	m.mu.Lock()
	user.Role = role
	m.mu.Unlock()
	return nil
}

func (m *mockUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	user, err := m.FindByID(ctx, id)
	if err != nil {
		return err
	}
	m.mu.Lock()
	delete(m.users, user.Email)
	m.mu.Unlock()
	return nil
}

func (m *mockUserRepository) List(ctx context.Context, search string, page pagination.Offset) ([]*domain.User, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.User
	for _, u := range m.users {
		if strings.Contains(u.Email, strings.ToLower(search)) {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	total := len(out)
	start := min(page.Skip(), total)
	end := min(start+page.PageSize, total)
	return out[start:end], total, nil
}

type mockRefreshTokenRepository struct {
	tokens map[string]*domain.RefreshToken
}

func newMockRefreshTokenRepository() *mockRefreshTokenRepository {
	return &mockRefreshTokenRepository{
		tokens: make(map[string]*domain.RefreshToken),
	}
}

func (m *mockRefreshTokenRepository) Create(ctx context.Context, token *domain.RefreshToken) error {
	m.tokens[token.Token] = token
	return nil
}

func (m *mockRefreshTokenRepository) FindByToken(ctx context.Context, token string) (*domain.RefreshToken, error) {
	refreshToken, exists := m.tokens[token]
	if !exists {
		return nil, repository.ErrRefreshTokenNotFound
	}
	if refreshToken.Revoked {
		return nil, repository.ErrRefreshTokenRevoked
	}
	return refreshToken, nil
}

func (m *mockRefreshTokenRepository) Revoke(ctx context.Context, token string) error {
	refreshToken, exists := m.tokens[token]
	if !exists {
		return repository.ErrRefreshTokenNotFound
	}
	refreshToken.Revoked = true
	return nil
}

func (m *mockRefreshTokenRepository) RevokeAllForUser(ctx context.Context, userID uuid.UUID) error {
	for _, t := range m.tokens {
		if t.UserID == userID {
			t.Revoked = true
		}
	}
	return nil
}

func (m *mockRefreshTokenRepository) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	var n int64
	for key, t := range m.tokens {
		if t.ExpiresAt.Before(cutoff) {
			delete(m.tokens, key)
			n++
		}
	}
	return n, nil
}

type mockMailer struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (m *mockMailer) Send(ctx context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return m.err
}

func (m *mockMailer) Sent() []mail.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mail.Message(nil), m.sent...)
}

type mockBroadcaster struct {
	mu     sync.Mutex
	events []realtime.Event
}

func (m *mockBroadcaster) Broadcast(event realtime.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
}

func (m *mockBroadcaster) Types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var types []string
	for _, e := range m.events {
		types = append(types, e.Type)
	}
	return types
}

type mockGateway struct {
	requests []payment.TransactionRequest
	err      error
}

func (m *mockGateway) CreateTransaction(ctx context.Context, req payment.TransactionRequest) (*payment.Transaction, error) {
	m.requests = append(m.requests, req)
	if m.err != nil {
		return nil, m.err
	}
	return &payment.Transaction{
		Token:       "snap-" + req.OrderNumber,
		RedirectURL: "https://pay.example.com/" + req.OrderNumber,
	}, nil
}

type mockStore struct {
	removed   []string
	removeErr error
}

func (m *mockStore) PresignUpload(ctx context.Context, prefix, contentType string) (*storage.PresignedUpload, error) {
	key, err := storage.ObjectKey(prefix, contentType)
	if err != nil {
		return nil, err
	}
	return &storage.PresignedUpload{
		UploadURL: "https://upload.example.com/" + key,
		Key:       key,
		PublicURL: m.PublicURL(key),
		ExpiresAt: time.Now().Add(15 * time.Minute),
	}, nil
}

func (m *mockStore) Remove(ctx context.Context, key string) error {
	m.removed = append(m.removed, key)
	return m.removeErr
}

func (m *mockStore) PublicURL(key string) string {
	return "https://cdn.example.com/" + key
}

type mockCategoryRepository struct {
	categories map[uuid.UUID]*domain.Category
	listCalls  int
	inUse      map[uuid.UUID]bool
}

func newMockCategoryRepository() *mockCategoryRepository {
	return &mockCategoryRepository{
		categories: make(map[uuid.UUID]*domain.Category),
		inUse:      make(map[uuid.UUID]bool),
	}
}

func (m *mockCategoryRepository) Create(ctx context.Context, category *domain.Category) error {
	for _, c := range m.categories {
		if c.Slug == category.Slug || c.Name == category.Name {
			return repository.ErrCategoryAlreadyExists
		}
	}
	m.categories[category.ID] = category
	return nil
}

func (m *mockCategoryRepository) Update(ctx context.Context, category *domain.Category) error {
	if _, ok := m.categories[category.ID]; !ok {
		return repository.ErrCategoryNotFound
	}
	m.categories[category.ID] = category
	return nil
}

func (m *mockCategoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.categories[id]; !ok {
		return repository.ErrCategoryNotFound
	}
	if m.inUse[id] {
		return repository.ErrCategoryInUse
	}
	delete(m.categories, id)
	return nil
}

func (m *mockCategoryRepository) List(ctx context.Context) ([]*domain.Category, error) {
	m.listCalls++
	out := []*domain.Category{}
	for _, c := range m.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *mockCategoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	c, ok := m.categories[id]
	if !ok {
		return nil, repository.ErrCategoryNotFound
	}
	return c, nil
}

func (m *mockCategoryRepository) FindBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	for _, c := range m.categories {
		if c.Slug == slug {
			return c, nil
		}
	}
	return nil, repository.ErrCategoryNotFound
}

type mockProductRepository struct {
	products   map[uuid.UUID]*domain.Product
	images     map[uuid.UUID][]domain.ProductImage
	lastFilter domain.ProductFilter
}

func newMockProductRepository() *mockProductRepository {
	return &mockProductRepository{
		products: make(map[uuid.UUID]*domain.Product),
		images:   make(map[uuid.UUID][]domain.ProductImage),
	}
}

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	for _, p := range m.products {
		if p.Slug == product.Slug {
			return repository.ErrProductSlugTaken
		}
	}
	cp := *product
	m.products[product.ID] = &cp
	return nil
}

func (m *mockProductRepository) Update(ctx context.Context, product *domain.Product) error {
	if _, ok := m.products[product.ID]; !ok {
		return repository.ErrProductNotFound
	}
	for _, p := range m.products {
		if p.ID != product.ID && p.Slug == product.Slug {
			return repository.ErrProductSlugTaken
		}
	}
	cp := *product
	m.products[product.ID] = &cp
	return nil
}

func (m *mockProductRepository) UpdateStock(ctx context.Context, id uuid.UUID, stock int) error {
	p, ok := m.products[id]
	if !ok {
		return repository.ErrProductNotFound
	}
	p.Stock = stock
	return nil
}

func (m *mockProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.products[id]; !ok {
		return repository.ErrProductNotFound
	}
	delete(m.products, id)
	delete(m.images, id)
	return nil
}

func (m *mockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	cp := *p
	cp.Images = m.images[id]
	return &cp, nil
}

func (m *mockProductRepository) FindBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	for _, p := range m.products {
		if p.Slug == slug {
			return m.FindByID(ctx, p.ID)
		}
	}
	return nil, repository.ErrProductNotFound
}

func (m *mockProductRepository) List(ctx context.Context, filter domain.ProductFilter, params pagination.Params) (pagination.Page[*domain.Product], error) {
	m.lastFilter = filter
	var items []*domain.Product
	for _, p := range m.products {
		if filter.OnlyActive && !p.IsActive {
			continue
		}
		if filter.CategoryID != nil && p.CategoryID != *filter.CategoryID {
			continue
		}
		items = append(items, p)
	}
	return pagination.Page[*domain.Product]{Items: items}, nil
}

func (m *mockProductRepository) AdminList(ctx context.Context, filter domain.ProductFilter, page pagination.Offset, sortBy string, sortOrder repository.SortOrder) ([]*domain.Product, int, error) {
	m.lastFilter = filter
	items, _ := m.ListAll(ctx)
	return items, len(items), nil
}

func (m *mockProductRepository) ListAll(ctx context.Context) ([]*domain.Product, error) {
	out := []*domain.Product{}
	for _, p := range m.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *mockProductRepository) AddImage(ctx context.Context, image *domain.ProductImage) error {
	if _, ok := m.products[image.ProductID]; !ok {
		return repository.ErrProductNotFound
	}
	image.Position = len(m.images[image.ProductID])
	m.images[image.ProductID] = append(m.images[image.ProductID], *image)
	return nil
}

func (m *mockProductRepository) ListImages(ctx context.Context, productID uuid.UUID) ([]domain.ProductImage, error) {
	return append([]domain.ProductImage{}, m.images[productID]...), nil
}

func (m *mockProductRepository) DeleteImage(ctx context.Context, productID, imageID uuid.UUID) (*domain.ProductImage, error) {
	images := m.images[productID]
	for i, img := range images {
		if img.ID == imageID {
			m.images[productID] = append(images[:i], images[i+1:]...)
			return &img, nil
		}
	}
	return nil, repository.ErrImageNotFound
}

type mockCartRepository struct {
	items   map[uuid.UUID][]*domain.CartItem
	removed []uuid.UUID
	added   int
}

func newMockCartRepository() *mockCartRepository {
	return &mockCartRepository{items: make(map[uuid.UUID][]*domain.CartItem)}
}

func (m *mockCartRepository) GetOrCreate(ctx context.Context, userID uuid.UUID) (*domain.Cart, error) {
	return &domain.Cart{ID: uuid.New(), UserID: userID}, nil
}

func (m *mockCartRepository) AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*domain.CartItem, error) {
	m.added++
	item := &domain.CartItem{ID: uuid.New(), ProductID: productID, Quantity: quantity}
	m.items[userID] = append(m.items[userID], item)
	return item, nil
}

func (m *mockCartRepository) SetQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) (*domain.CartItem, error) {
	for _, item := range m.items[userID] {
		if item.ProductID == productID {
			if quantity <= 0 {
				return nil, m.RemoveItem(ctx, userID, productID)
			}
			item.Quantity = quantity
			return item, nil
		}
	}
	return nil, repository.ErrCartItemNotFound
}

func (m *mockCartRepository) RemoveItem(ctx context.Context, userID, productID uuid.UUID) error {
	return m.RemoveProducts(ctx, userID, []uuid.UUID{productID})
}

func (m *mockCartRepository) RemoveProducts(ctx context.Context, userID uuid.UUID, productIDs []uuid.UUID) error {
	drop := make(map[uuid.UUID]bool, len(productIDs))
	for _, id := range productIDs {
		drop[id] = true
		m.removed = append(m.removed, id)
	}
	kept := m.items[userID][:0]
	for _, item := range m.items[userID] {
		if !drop[item.ProductID] {
			kept = append(kept, item)
		}
	}
	m.items[userID] = kept
	return nil
}

func (m *mockCartRepository) Clear(ctx context.Context, userID uuid.UUID) error {
	delete(m.items, userID)
	return nil
}

func (m *mockCartRepository) ListItems(ctx context.Context, userID uuid.UUID, params pagination.Params) (pagination.Page[*domain.CartItem], error) {
	return pagination.Page[*domain.CartItem]{Items: m.items[userID]}, nil
}

func (m *mockCartRepository) AllItems(ctx context.Context, userID uuid.UUID) ([]*domain.CartItem, error) {
	return append([]*domain.CartItem{}, m.items[userID]...), nil
}

func (m *mockCartRepository) Summary(ctx context.Context, userID uuid.UUID) (domain.CartSummary, error) {
	var s domain.CartSummary
	for _, item := range m.items[userID] {
		s.Lines++
		s.Quantity += item.Quantity
		s.Subtotal += item.Subtotal()
	}
	return s, nil
}

// mockOrderRepository keeps payment events alongside orders so
// ApplyNotification can behave like one transaction.
type mockOrderRepository struct {
	mu            sync.Mutex
	orders        map[uuid.UUID]*domain.Order
	events        *mockPaymentEventRepository
	takenNumbers  int
	transitionErr error
}

func newMockOrderRepository() *mockOrderRepository {
	return &mockOrderRepository{
		orders: make(map[uuid.UUID]*domain.Order),
		events: newMockPaymentEventRepository(),
	}
}

func (m *mockOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.takenNumbers > 0 {
		m.takenNumbers--
		return repository.ErrOrderNumberTaken
	}
	cp := *order
	m.orders[order.ID] = &cp
	return nil
}

func (m *mockOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *mockOrderRepository) FindByNumber(ctx context.Context, number string) (*domain.Order, error) {
	m.mu.Lock()
	var id uuid.UUID
	for _, o := range m.orders {
		if o.OrderNumber == number {
			id = o.ID
		}
	}
	m.mu.Unlock()
	return m.FindByID(ctx, id)
}

func (m *mockOrderRepository) ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (pagination.Page[*domain.Order], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var items []*domain.Order
	for _, o := range m.orders {
		if o.UserID == userID {
			items = append(items, o)
		}
	}
	return pagination.Page[*domain.Order]{Items: items}, nil
}

func (m *mockOrderRepository) List(ctx context.Context, filter domain.OrderFilter, page pagination.Offset) ([]*domain.Order, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var items []*domain.Order
	for _, o := range m.orders {
		if filter.Status != nil && o.Status != *filter.Status {
			continue
		}
		items = append(items, o)
	}
	return items, len(items), nil
}

func (m *mockOrderRepository) AttachPayment(ctx context.Context, id uuid.UUID, token, redirectURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return repository.ErrOrderNotFound
	}
	o.PaymentToken = token
	o.PaymentURL = redirectURL
	return nil
}

func (m *mockOrderRepository) Transition(ctx context.Context, id uuid.UUID, next domain.OrderStatus, paymentType string) (*domain.TransitionResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.transitionErr != nil {
		return nil, m.transitionErr
	}
	o, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	return m.apply(o, next, paymentType)
}

func (m *mockOrderRepository) ApplyNotification(ctx context.Context, event *domain.PaymentEvent, next domain.OrderStatus, paymentType string) (*domain.TransitionResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// anything failing here rolls back, event included
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key := event.TransactionID + "|" + event.TransactionStatus
	if _, seen := m.events.events[key]; seen {
		return nil, repository.ErrDuplicateNotification
	}
	if m.transitionErr != nil {
		return nil, m.transitionErr
	}
	var order *domain.Order
	for _, o := range m.orders {
		if o.OrderNumber == event.OrderNumber {
			order = o
		}
	}
	if order == nil {
		return nil, repository.ErrOrderNotFound
	}

	m.events.events[key] = event
	if next == "" {
		cp := *order
		return &domain.TransitionResult{Order: &cp, Previous: order.Status}, nil
	}
	result, err := m.apply(order, next, paymentType)
	if errors.Is(err, repository.ErrInvalidTransition) {
		cp := *order
		return &domain.TransitionResult{Order: &cp, Previous: order.Status}, err
	}
	return result, err
}

func (m *mockOrderRepository) apply(o *domain.Order, next domain.OrderStatus, paymentType string) (*domain.TransitionResult, error) {
	result := &domain.TransitionResult{Previous: o.Status}
	if o.Status != next {
		if !o.Status.CanTransitionTo(next) {
			return nil, fmt.Errorf("%w: %s to %s", repository.ErrInvalidTransition, o.Status, next)
		}
		o.Status = next
		if paymentType != "" {
			o.PaymentType = paymentType
		}
		result.Changed = true
	}
	cp := *o
	result.Order = &cp
	return result, nil
}

func (m *mockOrderRepository) status(id uuid.UUID) domain.OrderStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.orders[id].Status
}

type mockAddressRepository struct {
	addresses map[uuid.UUID]*domain.Address
}

func newMockAddressRepository() *mockAddressRepository {
	return &mockAddressRepository{addresses: make(map[uuid.UUID]*domain.Address)}
}

func (m *mockAddressRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Address, error) {
	var out []*domain.Address
	for _, a := range m.addresses {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockAddressRepository) FindByID(ctx context.Context, userID, id uuid.UUID) (*domain.Address, error) {
	a, ok := m.addresses[id]
	if !ok || a.UserID != userID {
		return nil, repository.ErrAddressNotFound
	}
	return a, nil
}

func (m *mockAddressRepository) FindMain(ctx context.Context, userID uuid.UUID) (*domain.Address, error) {
	for _, a := range m.addresses {
		if a.UserID == userID && a.IsMain {
			return a, nil
		}
	}
	return nil, repository.ErrAddressNotFound
}

func (m *mockAddressRepository) Create(ctx context.Context, address *domain.Address) error {
	existing, _ := m.ListByUser(ctx, address.UserID)
	if len(existing) >= domain.MaxAddressesPerUser {
		return repository.ErrAddressLimitReached
	}
	if len(existing) == 0 {
		address.IsMain = true
	}
	m.addresses[address.ID] = address
	return nil
}

func (m *mockAddressRepository) Update(ctx context.Context, address *domain.Address) error {
	if _, err := m.FindByID(ctx, address.UserID, address.ID); err != nil {
		return err
	}
	m.addresses[address.ID] = address
	return nil
}

func (m *mockAddressRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if _, err := m.FindByID(ctx, userID, id); err != nil {
		return err
	}
	delete(m.addresses, id)
	return nil
}

func (m *mockAddressRepository) SetMain(ctx context.Context, userID, id uuid.UUID) error {
	if _, err := m.FindByID(ctx, userID, id); err != nil {
		return err
	}
	for _, a := range m.addresses {
		if a.UserID == userID {
			a.IsMain = a.ID == id
		}
	}
	return nil
}

type mockWishlistRepository struct {
	items map[[2]uuid.UUID]bool
}

func newMockWishlistRepository() *mockWishlistRepository {
	return &mockWishlistRepository{items: make(map[[2]uuid.UUID]bool)}
}

func (m *mockWishlistRepository) Add(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	key := [2]uuid.UUID{userID, productID}
	if m.items[key] {
		return false, nil
	}
	m.items[key] = true
	return true, nil
}

func (m *mockWishlistRepository) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	key := [2]uuid.UUID{userID, productID}
	if !m.items[key] {
		return repository.ErrWishlistItemNotFound
	}
	delete(m.items, key)
	return nil
}

func (m *mockWishlistRepository) Exists(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	return m.items[[2]uuid.UUID{userID, productID}], nil
}

func (m *mockWishlistRepository) List(ctx context.Context, userID uuid.UUID, params pagination.Params) (pagination.Page[*domain.WishlistItem], error) {
	var items []*domain.WishlistItem
	for key := range m.items {
		if key[0] == userID {
			items = append(items, &domain.WishlistItem{UserID: userID, ProductID: key[1]})
		}
	}
	return pagination.Page[*domain.WishlistItem]{Items: items}, nil
}

type mockPaymentEventRepository struct {
	events map[string]*domain.PaymentEvent
}

func newMockPaymentEventRepository() *mockPaymentEventRepository {
	return &mockPaymentEventRepository{events: make(map[string]*domain.PaymentEvent)}
}

func (m *mockPaymentEventRepository) ListByOrder(ctx context.Context, orderNumber string) ([]*domain.PaymentEvent, error) {
	var out []*domain.PaymentEvent
	for _, e := range m.events {
		if e.OrderNumber == orderNumber {
			out = append(out, e)
		}
	}
	return out, nil
}
