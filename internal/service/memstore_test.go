package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"bike-bazaar/internal/domain"
	"bike-bazaar/internal/repository"

	"github.com/google/uuid"
)

// memData is the whole fake database. Values are copied in and out so callers never
// share pointers with stored rows.
type memData struct {
	users       map[uuid.UUID]domain.User
	sellers     map[uuid.UUID]domain.SellerProfile   // by user id
	mechanics   map[uuid.UUID]domain.MechanicProfile // by user id
	admins      map[uuid.UUID]bool
	tokens      map[string]domain.RefreshToken
	categories  map[uuid.UUID]domain.Category
	products    map[uuid.UUID]domain.Product
	cart        []domain.CartItem
	orders      map[uuid.UUID]domain.Order
	orderItems  []domain.OrderItem
	inspections map[uuid.UUID]domain.Inspection
	bikes       map[uuid.UUID]domain.UserBike
	offerings   map[uuid.UUID]domain.MechanicService
	bookings    []domain.Booking
}

func newMemData() *memData {
	return &memData{
		users:       map[uuid.UUID]domain.User{},
		sellers:     map[uuid.UUID]domain.SellerProfile{},
		mechanics:   map[uuid.UUID]domain.MechanicProfile{},
		admins:      map[uuid.UUID]bool{},
		tokens:      map[string]domain.RefreshToken{},
		categories:  map[uuid.UUID]domain.Category{},
		products:    map[uuid.UUID]domain.Product{},
		orders:      map[uuid.UUID]domain.Order{},
		inspections: map[uuid.UUID]domain.Inspection{},
		bikes:       map[uuid.UUID]domain.UserBike{},
		offerings:   map[uuid.UUID]domain.MechanicService{},
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (d *memData) clone() *memData {
	return &memData{
		users:       cloneMap(d.users),
		sellers:     cloneMap(d.sellers),
		mechanics:   cloneMap(d.mechanics),
		admins:      cloneMap(d.admins),
		tokens:      cloneMap(d.tokens),
		categories:  cloneMap(d.categories),
		products:    cloneMap(d.products),
		cart:        append([]domain.CartItem(nil), d.cart...),
		orders:      cloneMap(d.orders),
		orderItems:  append([]domain.OrderItem(nil), d.orderItems...),
		inspections: cloneMap(d.inspections),
		bikes:       cloneMap(d.bikes),
		offerings:   cloneMap(d.offerings),
		bookings:    append([]domain.Booking(nil), d.bookings...),
	}
}

// memStore implements repository.Store in memory. Transactions are serialized and
// roll back by restoring a snapshot.
type memStore struct {
	mu   *sync.Mutex
	txMu *sync.Mutex
	data **memData
	inTx bool
}

func newMemStore() *memStore {
	data := newMemData()
	return &memStore{mu: &sync.Mutex{}, txMu: &sync.Mutex{}, data: &data}
}

func (s *memStore) d() *memData { return *s.data }

func (s *memStore) Users() repository.UserRepository                 { return memUsers{s} }
func (s *memStore) RefreshTokens() repository.RefreshTokenRepository { return memTokens{s} }
func (s *memStore) Categories() repository.CategoryRepository        { return memCategories{s} }
func (s *memStore) Products() repository.ProductRepository           { return memProducts{s} }
func (s *memStore) Carts() repository.CartRepository                 { return memCarts{s} }
func (s *memStore) Orders() repository.OrderRepository               { return memOrders{s} }
func (s *memStore) Inspections() repository.InspectionRepository     { return memInspections{s} }
func (s *memStore) Garage() repository.GarageRepository              { return memGarage{s} }
func (s *memStore) Mechanics() repository.MechanicRepository         { return memMechanics{s} }

func (s *memStore) WithTx(ctx context.Context, fn func(tx repository.Store) error) (err error) {
	if s.inTx {
		return fn(s)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snapshot := s.d().clone()
	s.mu.Unlock()

	defer func() {
		if p := recover(); p != nil {
			s.restore(snapshot)
			panic(p)
		}
	}()

	if err := fn(&memStore{mu: s.mu, txMu: s.txMu, data: s.data, inTx: true}); err != nil {
		s.restore(snapshot)
		return err
	}
	return nil
}

func (s *memStore) restore(snapshot *memData) {
	s.mu.Lock()
	*s.data = snapshot
	s.mu.Unlock()
}

func (s *memStore) lock() func() {
	s.mu.Lock()
	return s.mu.Unlock
}

// Seed helpers used by tests.

func (s *memStore) seedUser(name string) domain.Identity {
	defer s.lock()()
	user := domain.User{ID: uuid.New(), Email: strings.ToLower(name) + "@example.com", Name: name, Phone: "+91-98" + name, CreatedAt: time.Now()}
	s.d().users[user.ID] = user
	return domain.Identity{UserID: user.ID, Email: user.Email, Name: user.Name}
}

func (s *memStore) seedSeller(name string) domain.Identity {
	identity := s.seedUser(name)
	defer s.lock()()
	profile := domain.SellerProfile{ID: uuid.New(), UserID: identity.UserID, BusinessName: name + " Motors"}
	s.d().sellers[identity.UserID] = profile
	identity.SellerID = uuid.NullUUID{UUID: profile.ID, Valid: true}
	return identity
}

func (s *memStore) seedMechanic(name string) domain.Identity {
	identity := s.seedUser(name)
	defer s.lock()()
	profile := domain.MechanicProfile{ID: uuid.New(), UserID: identity.UserID, ExperienceYears: 5, ShopAddress: "MG Road"}
	s.d().mechanics[identity.UserID] = profile
	identity.MechanicID = uuid.NullUUID{UUID: profile.ID, Valid: true}
	return identity
}

func (s *memStore) seedAdmin(name string) domain.Identity {
	identity := s.seedUser(name)
	defer s.lock()()
	s.d().admins[identity.UserID] = true
	identity.IsAdmin = true
	return identity
}

func (s *memStore) seedProduct(p domain.Product) domain.Product {
	defer s.lock()()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Title == "" {
		p.Title = string(p.Type) + " listing"
	}
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	s.d().products[p.ID] = p
	return p
}

func (s *memStore) product(id uuid.UUID) domain.Product {
	defer s.lock()()
	return s.d().products[id]
}

func (s *memStore) cartSize(userID uuid.UUID) int {
	defer s.lock()()
	n := 0
	for _, item := range s.d().cart {
		if item.UserID == userID {
			n++
		}
	}
	return n
}

func (s *memStore) orderCount() int {
	defer s.lock()()
	return len(s.d().orders)
}

func (s *memStore) inspection(id uuid.UUID) domain.Inspection {
	defer s.lock()()
	return s.d().inspections[id]
}

// Users

type memUsers struct{ s *memStore }

func (r memUsers) Create(ctx context.Context, user *domain.User) error {
	defer r.s.lock()()
	for _, u := range r.s.d().users {
		if strings.EqualFold(u.Email, user.Email) {
			return repository.ErrUserAlreadyExists
		}
	}
	r.s.d().users[user.ID] = *user
	return nil
}

func (r memUsers) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	defer r.s.lock()()
	for _, u := range r.s.d().users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (r memUsers) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	defer r.s.lock()()
	u, ok := r.s.d().users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return &u, nil
}

func (r memUsers) CreateSellerProfile(ctx context.Context, profile *domain.SellerProfile) error {
	defer r.s.lock()()
	if _, ok := r.s.d().sellers[profile.UserID]; ok {
		return repository.ErrProfileAlreadyExists
	}
	r.s.d().sellers[profile.UserID] = *profile
	return nil
}

func (r memUsers) CreateMechanicProfile(ctx context.Context, profile *domain.MechanicProfile) error {
	defer r.s.lock()()
	if _, ok := r.s.d().mechanics[profile.UserID]; ok {
		return repository.ErrProfileAlreadyExists
	}
	r.s.d().mechanics[profile.UserID] = *profile
	return nil
}

func (r memUsers) FindSellerProfile(ctx context.Context, userID uuid.UUID) (*domain.SellerProfile, error) {
	defer r.s.lock()()
	p, ok := r.s.d().sellers[userID]
	if !ok {
		return nil, repository.ErrProfileNotFound
	}
	return &p, nil
}

func (r memUsers) FindMechanicProfile(ctx context.Context, userID uuid.UUID) (*domain.MechanicProfile, error) {
	defer r.s.lock()()
	p, ok := r.s.d().mechanics[userID]
	if !ok {
		return nil, repository.ErrProfileNotFound
	}
	return &p, nil
}

func (r memUsers) ResolveIdentity(ctx context.Context, userID uuid.UUID) (*domain.Identity, error) {
	defer r.s.lock()()
	u, ok := r.s.d().users[userID]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	identity := &domain.Identity{UserID: u.ID, Email: u.Email, Name: u.Name, IsAdmin: r.s.d().admins[userID]}
	if p, ok := r.s.d().sellers[userID]; ok {
		identity.SellerID = uuid.NullUUID{UUID: p.ID, Valid: true}
	}
	if p, ok := r.s.d().mechanics[userID]; ok {
		identity.MechanicID = uuid.NullUUID{UUID: p.ID, Valid: true}
	}
	return identity, nil
}

// Refresh tokens

type memTokens struct{ s *memStore }

func (r memTokens) Create(ctx context.Context, token *domain.RefreshToken) error {
	defer r.s.lock()()
	r.s.d().tokens[token.Token] = *token
	return nil
}

func (r memTokens) FindByToken(ctx context.Context, token string) (*domain.RefreshToken, error) {
	defer r.s.lock()()
	t, ok := r.s.d().tokens[token]
	if !ok {
		return nil, repository.ErrRefreshTokenNotFound
	}
	if t.Revoked {
		return nil, repository.ErrRefreshTokenRevoked
	}
	return &t, nil
}

func (r memTokens) Revoke(ctx context.Context, token string) error {
	defer r.s.lock()()
	t, ok := r.s.d().tokens[token]
	if !ok {
		return repository.ErrRefreshTokenNotFound
	}
	t.Revoked = true
	r.s.d().tokens[token] = t
	return nil
}

// Categories

type memCategories struct{ s *memStore }

func (r memCategories) Create(ctx context.Context, category *domain.Category) error {
	defer r.s.lock()()
	for _, c := range r.s.d().categories {
		if strings.EqualFold(c.Name, category.Name) {
			return repository.ErrCategoryAlreadyExists
		}
	}
	r.s.d().categories[category.ID] = *category
	return nil
}

func (r memCategories) List(ctx context.Context) ([]*domain.Category, error) {
	defer r.s.lock()()
	out := []*domain.Category{}
	for _, c := range r.s.d().categories {
		c := c
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r memCategories) FindByID(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	defer r.s.lock()()
	c, ok := r.s.d().categories[id]
	if !ok {
		return nil, repository.ErrCategoryNotFound
	}
	return &c, nil
}

func (r memCategories) FindByName(ctx context.Context, name string) (*domain.Category, error) {
	defer r.s.lock()()
	for _, c := range r.s.d().categories {
		if strings.EqualFold(c.Name, name) {
			return &c, nil
		}
	}
	return nil, repository.ErrCategoryNotFound
}

// Products

type memProducts struct{ s *memStore }

func (r memProducts) Create(ctx context.Context, product *domain.Product) error {
	defer r.s.lock()()
	r.s.d().products[product.ID] = *product
	return nil
}

func (r memProducts) Update(ctx context.Context, product *domain.Product) error {
	defer r.s.lock()()
	if _, ok := r.s.d().products[product.ID]; !ok {
		return repository.ErrProductNotFound
	}
	r.s.d().products[product.ID] = *product
	return nil
}

func (r memProducts) Delete(ctx context.Context, id uuid.UUID) error {
	defer r.s.lock()()
	if _, ok := r.s.d().products[id]; !ok {
		return repository.ErrProductNotFound
	}
	delete(r.s.d().products, id)
	return nil
}

func (r memProducts) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	defer r.s.lock()()
	p, ok := r.s.d().products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return &p, nil
}

func (r memProducts) List(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, int, error) {
	defer r.s.lock()()
	matches := []*domain.Product{}
	for _, p := range r.s.d().products {
		p := p
		if p.IsSold {
			continue
		}
		if filter.Brand != "" && !strings.Contains(strings.ToLower(p.Brand), strings.ToLower(filter.Brand)) {
			continue
		}
		if filter.Model != "" && !strings.Contains(strings.ToLower(p.Model), strings.ToLower(filter.Model)) {
			continue
		}
		if filter.Type != "" && p.Type != filter.Type {
			continue
		}
		if len(filter.Types) > 0 && !containsType(filter.Types, p.Type) {
			continue
		}
		if filter.MinPrice != nil && p.Price.LessThan(*filter.MinPrice) {
			continue
		}
		if filter.MaxPrice != nil && p.Price.GreaterThan(*filter.MaxPrice) {
			continue
		}
		matches = append(matches, &p)
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].CreatedAt.After(matches[j].CreatedAt) })

	page, pageSize := domain.NormalizePage(filter.Page, filter.PageSize)
	start := (page - 1) * pageSize
	if start > len(matches) {
		start = len(matches)
	}
	end := start + pageSize
	if end > len(matches) {
		end = len(matches)
	}
	return matches[start:end], len(matches), nil
}

func containsType(types []domain.ProductType, t domain.ProductType) bool {
	for _, candidate := range types {
		if candidate == t {
			return true
		}
	}
	return false
}

func (r memProducts) ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]*domain.Product, error) {
	defer r.s.lock()()
	out := []*domain.Product{}
	for _, p := range r.s.d().products {
		p := p
		if p.SellerID == sellerID {
			out = append(out, &p)
		}
	}
	return out, nil
}

func (r memProducts) DecrementStock(ctx context.Context, id uuid.UUID, quantity int) error {
	defer r.s.lock()()
	p, ok := r.s.d().products[id]
	if !ok || p.Stock < quantity {
		return repository.ErrInsufficientStock
	}
	p.Stock -= quantity
	if p.IsBike() {
		p.IsSold = true
	}
	r.s.d().products[id] = p
	return nil
}

func (r memProducts) RestoreStock(ctx context.Context, id uuid.UUID, quantity int) error {
	defer r.s.lock()()
	p, ok := r.s.d().products[id]
	if !ok {
		return repository.ErrProductNotFound
	}
	p.Stock += quantity
	if p.IsBike() {
		p.IsSold = false
	}
	r.s.d().products[id] = p
	return nil
}

// Carts

type memCarts struct{ s *memStore }

func (r memCarts) Add(ctx context.Context, item *domain.CartItem) error {
	defer r.s.lock()()
	r.s.d().cart = append(r.s.d().cart, *item)
	return nil
}

func (r memCarts) FindByID(ctx context.Context, id uuid.UUID) (*domain.CartItem, error) {
	defer r.s.lock()()
	for _, item := range r.s.d().cart {
		if item.ID == id {
			return &item, nil
		}
	}
	return nil, repository.ErrCartItemNotFound
}

func (r memCarts) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.CartLine, error) {
	defer r.s.lock()()
	lines := []*domain.CartLine{}
	for _, item := range r.s.d().cart {
		if item.UserID == userID {
			lines = append(lines, &domain.CartLine{CartItem: item, Product: r.s.d().products[item.ProductID]})
		}
	}
	return lines, nil
}

func (r memCarts) UpdateQuantity(ctx context.Context, id uuid.UUID, quantity int) error {
	defer r.s.lock()()
	for i := range r.s.d().cart {
		if r.s.d().cart[i].ID == id {
			r.s.d().cart[i].Quantity = quantity
			return nil
		}
	}
	return repository.ErrCartItemNotFound
}

func (r memCarts) Delete(ctx context.Context, id uuid.UUID) error {
	defer r.s.lock()()
	return r.s.deleteCart(func(item domain.CartItem) bool { return item.ID == id }, repository.ErrCartItemNotFound)
}

func (r memCarts) DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	defer r.s.lock()()
	before := len(r.s.d().cart)
	_ = r.s.deleteCart(func(item domain.CartItem) bool { return item.UserID == userID }, nil)
	return int64(before - len(r.s.d().cart)), nil
}

func (r memCarts) DeleteByProduct(ctx context.Context, productID uuid.UUID) error {
	defer r.s.lock()()
	_ = r.s.deleteCart(func(item domain.CartItem) bool { return item.ProductID == productID }, nil)
	return nil
}

// deleteCart must be called with mu held.
func (s *memStore) deleteCart(match func(domain.CartItem) bool, notFound error) error {
	kept := s.d().cart[:0:0]
	removed := 0
	for _, item := range s.d().cart {
		if match(item) {
			removed++
			continue
		}
		kept = append(kept, item)
	}
	s.d().cart = kept
	if removed == 0 {
		return notFound
	}
	return nil
}

// Orders

type memOrders struct{ s *memStore }

func (r memOrders) Create(ctx context.Context, order *domain.Order) error {
	defer r.s.lock()()
	stored := *order
	stored.Items = nil
	r.s.d().orders[order.ID] = stored
	return nil
}

func (r memOrders) AddItem(ctx context.Context, item *domain.OrderItem) error {
	defer r.s.lock()()
	r.s.d().orderItems = append(r.s.d().orderItems, domain.OrderItem{
		ID:              item.ID,
		OrderID:         item.OrderID,
		ProductID:       item.ProductID,
		Quantity:        item.Quantity,
		PriceAtPurchase: item.PriceAtPurchase,
	})
	return nil
}

// loadOrder must be called with mu held.
func (s *memStore) loadOrder(o domain.Order) *domain.Order {
	o.Items = []*domain.OrderItem{}
	for _, item := range s.d().orderItems {
		if item.OrderID != o.ID {
			continue
		}
		item := item
		p := s.d().products[item.ProductID]
		item.ProductTitle, item.ProductType, item.SellerID = p.Title, p.Type, p.SellerID
		o.Items = append(o.Items, &item)
	}
	return &o
}

func (r memOrders) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	defer r.s.lock()()
	o, ok := r.s.d().orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	return r.s.loadOrder(o), nil
}

func (r memOrders) ListByBuyer(ctx context.Context, buyerID uuid.UUID) ([]*domain.Order, error) {
	defer r.s.lock()()
	out := []*domain.Order{}
	for _, o := range r.s.d().orders {
		if o.BuyerID == buyerID {
			out = append(out, r.s.loadOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r memOrders) sales(match func(item domain.OrderItem, p domain.Product) bool) []*domain.SaleLine {
	defer r.s.lock()()
	out := []*domain.SaleLine{}
	for _, item := range r.s.d().orderItems {
		p := r.s.d().products[item.ProductID]
		if !match(item, p) {
			continue
		}
		o := r.s.d().orders[item.OrderID]
		buyer := r.s.d().users[o.BuyerID]
		out = append(out, &domain.SaleLine{
			OrderID:         o.ID,
			OrderItemID:     item.ID,
			ProductID:       item.ProductID,
			ProductTitle:    p.Title,
			Quantity:        item.Quantity,
			PriceAtPurchase: item.PriceAtPurchase,
			OrderStatus:     o.Status,
			BuyerName:       buyer.Name,
			BuyerEmail:      buyer.Email,
			CreatedAt:       o.CreatedAt,
		})
	}
	return out
}

func (r memOrders) ListSalesBySeller(ctx context.Context, sellerID uuid.UUID) ([]*domain.SaleLine, error) {
	return r.sales(func(_ domain.OrderItem, p domain.Product) bool { return p.SellerID == sellerID }), nil
}

func (r memOrders) ListSalesByProduct(ctx context.Context, productID uuid.UUID) ([]*domain.SaleLine, error) {
	return r.sales(func(item domain.OrderItem, _ domain.Product) bool { return item.ProductID == productID }), nil
}

func (r memOrders) UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.OrderStatus) error {
	defer r.s.lock()()
	o, ok := r.s.d().orders[id]
	if !ok || o.Status != from {
		return repository.ErrOrderStatusChanged
	}
	o.Status = to
	o.UpdatedAt = time.Now()
	r.s.d().orders[id] = o
	return nil
}

func (r memOrders) CountItemsForProduct(ctx context.Context, productID uuid.UUID) (int, error) {
	defer r.s.lock()()
	n := 0
	for _, item := range r.s.d().orderItems {
		if item.ProductID == productID {
			n++
		}
	}
	return n, nil
}

// Inspections

type memInspections struct{ s *memStore }

func (r memInspections) Create(ctx context.Context, inspection *domain.Inspection) error {
	defer r.s.lock()()
	r.s.d().inspections[inspection.ID] = *inspection
	return nil
}

// view must be called with mu held.
func (s *memStore) view(i domain.Inspection) *domain.InspectionView {
	buyer := s.d().users[i.BuyerID]
	v := &domain.InspectionView{Inspection: i, BuyerName: buyer.Name, BuyerPhone: buyer.Phone}
	if i.ProductID.Valid {
		p := s.d().products[i.ProductID.UUID]
		title, seller := p.Title, p.SellerID
		v.ProductTitle, v.SellerID = &title, &seller
	}
	if i.UserBikeID.Valid {
		model := s.d().bikes[i.UserBikeID.UUID].Model
		v.BikeModel = &model
	}
	if i.MechanicID.Valid {
		for userID, m := range s.d().mechanics {
			if m.ID == i.MechanicID.UUID {
				u := s.d().users[userID]
				name, phone := u.Name, u.Phone
				v.MechanicName, v.MechanicPhone = &name, &phone
			}
		}
	}
	return v
}

func (r memInspections) FindByID(ctx context.Context, id uuid.UUID) (*domain.InspectionView, error) {
	defer r.s.lock()()
	i, ok := r.s.d().inspections[id]
	if !ok {
		return nil, repository.ErrInspectionNotFound
	}
	return r.s.view(i), nil
}

func (r memInspections) transition(id uuid.UUID, allowed func(i domain.Inspection) bool, apply func(i *domain.Inspection)) error {
	defer r.s.lock()()
	i, ok := r.s.d().inspections[id]
	if !ok || !allowed(i) {
		return repository.ErrInspectionStateChanged
	}
	apply(&i)
	i.UpdatedAt = time.Now()
	r.s.d().inspections[id] = i
	return nil
}

func (r memInspections) Claim(ctx context.Context, id, mechanicID uuid.UUID) error {
	return r.transition(id,
		func(i domain.Inspection) bool { return i.IsOpen() },
		func(i *domain.Inspection) {
			i.MechanicID = uuid.NullUUID{UUID: mechanicID, Valid: true}
			i.Status = domain.InspectionStatusAccepted
		})
}

func (r memInspections) Reject(ctx context.Context, id, mechanicID uuid.UUID, reason string) error {
	return r.transition(id,
		func(i domain.Inspection) bool {
			return i.MechanicID.UUID == mechanicID && i.Status == domain.InspectionStatusAccepted
		},
		func(i *domain.Inspection) {
			i.Status = domain.InspectionStatusRejected
			i.RejectionReason = reason
		})
}

func (r memInspections) Complete(ctx context.Context, id, mechanicID uuid.UUID, report domain.InspectionReport, completedAt time.Time) error {
	return r.transition(id,
		func(i domain.Inspection) bool {
			return i.MechanicID.UUID == mechanicID && i.Status == domain.InspectionStatusAccepted
		},
		func(i *domain.Inspection) {
			i.Status = domain.InspectionStatusCompleted
			i.ReportData = &report
			i.CompletedAt = &completedAt
		})
}

func (r memInspections) Cancel(ctx context.Context, id, buyerID uuid.UUID) error {
	return r.transition(id,
		func(i domain.Inspection) bool {
			return i.BuyerID == buyerID && i.Status == domain.InspectionStatusPending
		},
		func(i *domain.Inspection) { i.Status = domain.InspectionStatusCancelled })
}

func (r memInspections) list(match func(v *domain.InspectionView) bool) []*domain.InspectionView {
	defer r.s.lock()()
	out := []*domain.InspectionView{}
	for _, i := range r.s.d().inspections {
		if v := r.s.view(i); match(v) {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r memInspections) ListByBuyer(ctx context.Context, buyerID uuid.UUID) ([]*domain.InspectionView, error) {
	return r.list(func(v *domain.InspectionView) bool { return v.BuyerID == buyerID }), nil
}

func (r memInspections) ListByMechanic(ctx context.Context, mechanicID uuid.UUID) ([]*domain.InspectionView, error) {
	return r.list(func(v *domain.InspectionView) bool {
		return v.MechanicID.Valid && v.MechanicID.UUID == mechanicID
	}), nil
}

func (r memInspections) ListOpen(ctx context.Context) ([]*domain.InspectionView, error) {
	return r.list(func(v *domain.InspectionView) bool { return v.IsOpen() }), nil
}

func (r memInspections) ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]*domain.InspectionView, error) {
	return r.list(func(v *domain.InspectionView) bool { return v.SellerID != nil && *v.SellerID == sellerID }), nil
}

func (r memInspections) CountForProduct(ctx context.Context, productID uuid.UUID) (int, error) {
	defer r.s.lock()()
	n := 0
	for _, i := range r.s.d().inspections {
		if i.ProductID.Valid && i.ProductID.UUID == productID {
			n++
		}
	}
	return n, nil
}

// Garage

type memGarage struct{ s *memStore }

func (r memGarage) Create(ctx context.Context, bike *domain.UserBike) error {
	defer r.s.lock()()
	r.s.d().bikes[bike.ID] = *bike
	return nil
}

func (r memGarage) FindByID(ctx context.Context, id uuid.UUID) (*domain.UserBike, error) {
	defer r.s.lock()()
	b, ok := r.s.d().bikes[id]
	if !ok {
		return nil, repository.ErrUserBikeNotFound
	}
	return &b, nil
}

func (r memGarage) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.UserBike, error) {
	defer r.s.lock()()
	out := []*domain.UserBike{}
	for _, b := range r.s.d().bikes {
		b := b
		if b.UserID == userID {
			out = append(out, &b)
		}
	}
	return out, nil
}

// Mechanics

type memMechanics struct{ s *memStore }

func (r memMechanics) FindByID(ctx context.Context, id uuid.UUID) (*domain.MechanicProfile, error) {
	defer r.s.lock()()
	for _, m := range r.s.d().mechanics {
		if m.ID == id {
			return &m, nil
		}
	}
	return nil, repository.ErrMechanicNotFound
}

func (r memMechanics) List(ctx context.Context) ([]*domain.MechanicListing, error) {
	defer r.s.lock()()
	out := []*domain.MechanicListing{}
	for userID, m := range r.s.d().mechanics {
		u := r.s.d().users[userID]
		listing := &domain.MechanicListing{MechanicProfile: m, Name: u.Name, Phone: u.Phone, Services: []*domain.MechanicService{}}
		for _, offering := range r.s.d().offerings {
			offering := offering
			if offering.MechanicID == m.ID {
				listing.Services = append(listing.Services, &offering)
			}
		}
		out = append(out, listing)
	}
	return out, nil
}

func (r memMechanics) AddService(ctx context.Context, offering *domain.MechanicService) error {
	defer r.s.lock()()
	r.s.d().offerings[offering.ID] = *offering
	return nil
}

func (r memMechanics) FindService(ctx context.Context, id uuid.UUID) (*domain.MechanicService, error) {
	defer r.s.lock()()
	offering, ok := r.s.d().offerings[id]
	if !ok {
		return nil, repository.ErrMechanicServiceNotFound
	}
	return &offering, nil
}

func (r memMechanics) CreateBooking(ctx context.Context, booking *domain.Booking) error {
	defer r.s.lock()()
	r.s.d().bookings = append(r.s.d().bookings, *booking)
	return nil
}

func (r memMechanics) ListBookingsByCustomer(ctx context.Context, customerID uuid.UUID) ([]*domain.Booking, error) {
	defer r.s.lock()()
	out := []*domain.Booking{}
	for _, b := range r.s.d().bookings {
		b := b
		if b.CustomerID == customerID {
			out = append(out, &b)
		}
	}
	return out, nil
}
