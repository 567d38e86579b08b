package main

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/minhqngo/staymate/internal/config"
	"github.com/minhqngo/staymate/internal/model"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	hostCount           = 5
	guestCount          = 10
	listingsPerHost     = 3
	messagesPerThread   = 12
	conversationThreads = 8
)

var roomTypes = []string{"entire_place", "private_room", "shared_room"}

var amenityPool = []string{
	"wifi", "kitchen", "washer", "air_conditioning", "heating",
	"workspace", "free_parking", "balcony", "breakfast", "pets_allowed",
}

func main() {
	cfg := config.Load()

	db, err := gorm.Open(postgres.Open(cfg.DB.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	log.Println("✅ Connected to Database")

	gofakeit.Seed(42)

	password := "password123"
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("❌ Failed to hash password: %v", err)
	}

	hosts := seedUsers(db, model.UserRoleHost, hostCount, string(hashedPassword))
	guests := seedUsers(db, model.UserRoleGuest, guestCount, string(hashedPassword))
	listings := seedListings(db, hosts)
	seedConversations(db, listings, guests)

	log.Printf("🎉 Seeding completed! (login with any seeded email / %s)", password)
}

func seedUsers(db *gorm.DB, role model.UserRole, count int, hashedPassword string) []model.User {
	log.Printf("🌱 Seeding %d %ss...", count, role)

	users := make([]model.User, 0, count)
	for i := 1; i <= count; i++ {
		email := fmt.Sprintf("%s%d@staymate.local", role, i)

		var existing model.User
		if err := db.Where("email = ?", email).First(&existing).Error; err == nil {
			users = append(users, existing)
			continue
		}

		now := time.Now()
		user := model.User{
			ID:              uuid.New(),
			Name:            gofakeit.Name(),
			Email:           email,
			Password:        hashedPassword,
			Role:            role,
			AuthProvider:    model.AuthProviderEmail,
			EmailVerifiedAt: &now,
			Avatar:          fmt.Sprintf("https://api.dicebear.com/7.x/avataaars/svg?seed=%s%d", role, i),
		}

		switch role {
		case model.UserRoleHost:
			user.Host = model.HostProfile{
				Bio:       gofakeit.Paragraph(1, 2, 12, " "),
				City:      gofakeit.City(),
				Country:   gofakeit.Country(),
				Languages: "en," + gofakeit.LanguageAbbreviation(),
			}
		case model.UserRoleGuest:
			user.Guest = model.GuestProfile{
				Bio:           gofakeit.Paragraph(1, 1, 12, " "),
				Occupation:    gofakeit.JobTitle(),
				PreferredCity: gofakeit.City(),
			}
		}

		if err := db.Create(&user).Error; err != nil {
			log.Printf("❌ Failed to create %s: %v", email, err)
			continue
		}
		users = append(users, user)
		log.Printf("✅ Created %s: %s <%s>", role, user.Name, email)
	}
	return users
}

func seedListings(db *gorm.DB, hosts []model.User) []model.Listing {
	log.Printf("🌱 Seeding %d listings per host...", listingsPerHost)

	var listings []model.Listing
	for _, host := range hosts {
		var existing int64
		db.Model(&model.Listing{}).Where("host_id = ?", host.ID).Count(&existing)
		if existing > 0 {
			var own []model.Listing
			db.Where("host_id = ?", host.ID).Find(&own)
			listings = append(listings, own...)
			continue
		}

		for i := 0; i < listingsPerHost; i++ {
			city := gofakeit.City()
			listing := model.Listing{
				ID:           uuid.New(),
				HostID:       host.ID,
				Title:        fmt.Sprintf("%s %s in %s", gofakeit.AdjectiveDescriptive(), gofakeit.RandomString([]string{"room", "studio", "apartment", "loft"}), city),
				Description:  gofakeit.Paragraph(2, 3, 15, " "),
				RoomType:     gofakeit.RandomString(roomTypes),
				Address:      gofakeit.Street(),
				City:         city,
				Country:      gofakeit.Country(),
				NightlyPrice: float64(gofakeit.Number(25, 220)),
				Currency:     "USD",
				Capacity:     gofakeit.Number(1, 6),
				Bedrooms:     gofakeit.Number(1, 3),
				Amenities:    toJSON(pickAmenities()),
				Images:       toJSON([]string{gofakeit.ImageURL(800, 600), gofakeit.ImageURL(800, 600)}),
				IsActive:     true,
			}
			if err := db.Create(&listing).Error; err != nil {
				log.Printf("❌ Failed to create listing: %v", err)
				continue
			}
			listings = append(listings, listing)
		}
	}
	log.Printf("✅ %d listings available", len(listings))
	return listings
}

func seedConversations(db *gorm.DB, listings []model.Listing, guests []model.User) {
	if len(listings) == 0 || len(guests) == 0 {
		return
	}
	log.Printf("🌱 Seeding %d conversation threads...", conversationThreads)

	for i := 0; i < conversationThreads; i++ {
		listing := listings[i%len(listings)]
		guest := guests[i%len(guests)]

		var existing model.Conversation
		err := db.Where("listing_id = ? AND guest_id = ? AND host_id = ?",
			listing.ID, guest.ID, listing.HostID).First(&existing).Error
		if err == nil {
			continue
		}

		conv := model.Conversation{
			ID:        uuid.New(),
			ListingID: listing.ID,
			GuestID:   guest.ID,
			HostID:    listing.HostID,
			IsPinned:  i == 0,
			IsStarred: i == 1,
			IsRead:    true,
		}
		if err := db.Create(&conv).Error; err != nil {
			log.Printf("❌ Failed to create conversation: %v", err)
			continue
		}

		// Alternate guest/host messages with increasing timestamps
		base := time.Now().Add(-time.Duration(conversationThreads-i) * 24 * time.Hour)
		for m := 0; m < messagesPerThread; m++ {
			senderID := guest.ID
			if m%2 == 1 {
				senderID = listing.HostID
			}
			createdAt := base.Add(time.Duration(m) * 7 * time.Minute)

			msg := model.Message{
				ID:             uuid.New(),
				ConversationID: conv.ID,
				SenderID:       senderID,
				Content:        gofakeit.Question(),
				CreatedAt:      createdAt,
			}
			// Older messages are read, the newest few are not
			if m < messagesPerThread-3 {
				readAt := createdAt.Add(2 * time.Minute)
				msg.ReadAt = &readAt
			}
			if err := db.Create(&msg).Error; err != nil {
				log.Printf("❌ Failed to create message: %v", err)
			}
		}

		unread := 3
		db.Model(&model.Conversation{}).Where("id = ?", conv.ID).Updates(map[string]interface{}{
			"unread_count": unread,
			"is_read":      false,
			"updated_at":   base.Add(messagesPerThread * 7 * time.Minute),
		})

		log.Printf("✅ Conversation: %s ↔ %s about %q", guest.Name, listing.HostID, listing.Title)
	}
}

func pickAmenities() []string {
	n := gofakeit.Number(3, 6)
	picked := make([]string, 0, n)
	for i := 0; i < n; i++ {
		picked = append(picked, amenityPool[gofakeit.Number(0, len(amenityPool)-1)])
	}
	return picked
}

func toJSON(values []string) datatypes.JSON {
	b, _ := json.Marshal(values)
	return datatypes.JSON(b)
}
