package api

import (
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"churchhub/services"
)

// RegisterRoutes wires services and controllers onto the router.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, rdb *redis.Client, hub *services.FeedHub) {
	access := services.NewAccessService(db)
	accounts := services.NewAccountService(db, rdb)
	people := services.NewPersonService(db, rdb)
	groups := services.NewGroupService(db, access)
	memberships := services.NewMembershipService(db, access)
	leadership := services.NewLeadershipService(db, access)
	events := services.NewEventService(db, hub)

	auth := NewAuthController(accounts)
	person := NewPersonController(people, accounts)
	group := NewGroupController(groups, memberships, leadership, accounts)
	attendance := NewAttendanceController(memberships, accounts)
	event := NewEventController(events, accounts)
	feed := NewFeedController(hub, accounts)
	monitor := NewMonitorController(hub)

	api := r.Group("/api")
	{
		// open endpoints, see middleware.skipAuth
		api.POST("/login", auth.Login)
		api.GET("/monitor", monitor.Status)

		// accounts
		api.POST("/users", auth.Register)
		api.GET("/users", auth.ListUsers)
		api.PUT("/users/:id/role", auth.SetRole)
		api.GET("/profile", auth.GetProfile)
		api.PUT("/profile/password", auth.ChangePassword)

		// people directory
		api.POST("/people", person.CreatePerson)
		api.GET("/people", person.ListPeople)
		api.GET("/people/:id", person.GetPerson)
		api.PUT("/people/:id", person.UpdatePerson)
		api.DELETE("/people/:id", person.DeletePerson)

		// households
		api.POST("/households", person.CreateHousehold)
		api.GET("/households", person.ListHouseholds)
		api.GET("/households/:id", person.GetHousehold)
		api.DELETE("/households/:id", person.DeleteHousehold)

		// groups and subgroups
		api.POST("/groups", group.CreateGroup)
		api.GET("/groups", group.ListGroups)
		api.GET("/groups/:id", group.GetGroup)
		api.PUT("/groups/:id", group.UpdateGroup)
		api.DELETE("/groups/:id", group.DeleteGroup)
		api.POST("/groups/:id/subgroups", group.CreateSubgroup)
		api.GET("/groups/:id/subgroups", group.ListSubgroups)
		api.PUT("/subgroups/:id", group.UpdateSubgroup)
		api.DELETE("/subgroups/:id", group.DeleteSubgroup)

		// memberships
		api.POST("/groups/:id/members", group.AddMember)
		api.GET("/groups/:id/members", group.ListMembers)
		api.DELETE("/members/:id", group.RemoveMember)
		api.PUT("/members/:id/subgroup", group.AssignSubgroup)

		// leadership
		api.POST("/groups/:id/leaders", group.AssignGroupLeader)
		api.DELETE("/groups/:id/leaders/:userID", group.RemoveGroupLeader)
		api.POST("/subgroups/:id/leaders", group.AssignSubgroupLeader)
		api.DELETE("/subgroups/:id/leaders/:userID", group.RemoveSubgroupLeader)

		// attendance
		api.POST("/members/:id/attendance", attendance.RecordAttendance)
		api.GET("/groups/:id/attendance", attendance.AttendanceReport)

		// events and check-ins
		api.POST("/events", event.CreateEvent)
		api.GET("/events", event.ListEvents)
		api.GET("/events/:id", event.GetEvent)
		api.PUT("/events/:id", event.UpdateEvent)
		api.DELETE("/events/:id", event.DeleteEvent)
		api.POST("/events/:id/checkins", event.CheckIn)
		api.GET("/events/:id/checkins", event.ListCheckIns)
		api.PUT("/checkins/:id/checkout", event.CheckOut)

		// live feed
		api.GET("/checkins/feed", feed.HandleFeed)
	}
}
