package repository

import "time"

// ProductListFilter 查询商品列表的过滤条件
type ProductListFilter struct {
	Page       int
	PageSize   int
	Search     string
	Quality    string
	OnlyActive bool
	// OnlyAvailable 仅返回至少一个规格可售的商品
	OnlyAvailable bool
}

// OrderListFilter 查询订单列表的过滤条件
type OrderListFilter struct {
	Page        int
	PageSize    int
	UserID      uint
	Statuses    []string
	Source      string
	OrderNo     string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// UserListFilter 查询用户列表的过滤条件
type UserListFilter struct {
	Page     int
	PageSize int
	Role     string
	Status   string
	Search   string
}

// ReviewListFilter 查询评价列表的过滤条件
type ReviewListFilter struct {
	Page         int
	PageSize     int
	ProductID    uint
	OnlyFeatured bool
}

// NotificationFilter 通知查询条件
type NotificationFilter struct {
	RecipientType string
	RecipientID   uint
	Now           time.Time
	Limit         int
}

// PostListFilter 博客文章查询条件
type PostListFilter struct {
	Page          int
	PageSize      int
	Status        string
	Search        string
	OnlyPublished bool
	OnlyFeatured  bool
}
