package model

// PlatformStats is the admin dashboard summary.
type PlatformStats struct {
	TotalUsers          int `db:"total_users" json:"totalUsers"`
	ActiveUsers         int `db:"active_users" json:"activeUsers"`
	BlockedUsers        int `db:"blocked_users" json:"blockedUsers"`
	OnboardedUsers      int `db:"onboarded_users" json:"onboardedUsers"`
	AdminUsers          int `db:"admin_users" json:"adminUsers"`
	RecentUsers         int `db:"recent_users" json:"recentUsers"`
	TotalFriendRequests int `db:"total_friend_requests" json:"totalFriendRequests"`
	PendingRequests     int `db:"pending_requests" json:"pendingRequests"`
}

// RecentUserWindowDays bounds RecentUsers.
const RecentUserWindowDays = 30
