package services_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/rs/zerolog"

	"github.com/yigit/feedsphere/internal/app/models"
	"github.com/yigit/feedsphere/internal/app/services"
	"github.com/yigit/feedsphere/internal/pkg/apperrors"
	"github.com/yigit/feedsphere/internal/pkg/filestorage"
	"github.com/yigit/feedsphere/internal/pkg/vision"
)

var _ = Describe("MessageService", func() {
	var (
		svc       services.MessageService
		messages  *mockMessageStore
		markers   *mockMarkerStore
		blobs     *mockBlobs
		urls      *mockURLs
		scorer    *mockScorer
		analyzer  *mockAnalyzer
		publisher *mockPublisher
		ctx       context.Context
	)

	withImage := services.CreateMessageInput{
		Text:   "Look at <b>this</b><script>alert(1)</script>",
		Upload: filestorage.Upload{Kind: filestorage.Uploaded, Ref: "photo.jpg"},
	}

	eiffel := vision.Annotation{
		Description: "Eiffel Tower",
		Locations:   []vision.LatLng{{Latitude: 48.858461, Longitude: 2.294351}},
	}
	louvre := vision.Annotation{
		Description: "Louvre",
		Locations:   []vision.LatLng{{Latitude: 48.860611, Longitude: 2.337644}},
	}

	BeforeEach(func() {
		ctx = context.Background()
		messages = &mockMessageStore{}
		markers = &mockMarkerStore{}
		blobs = &mockBlobs{data: []byte("jpeg bytes")}
		urls = &mockURLs{}
		scorer = &mockScorer{score: 0.4}
		analyzer = &mockAnalyzer{detections: map[vision.Kind]vision.Detection{}}
		publisher = &mockPublisher{}
	})

	JustBeforeEach(func() {
		svc = services.NewMessageService(messages, markers, blobs, urls, scorer, analyzer, publisher, zerolog.Nop())
	})

	Describe("CreateMessage", func() {
		Context("when the author is missing", func() {
			It("should reject without side effects", func() {
				message, err := svc.CreateMessage(ctx, "", withImage)

				Expect(err).To(MatchError(apperrors.ErrUnauthenticated))
				Expect(message).To(BeNil())
				Expect(messages.created).To(BeEmpty())
				Expect(markers.created).To(BeEmpty())
				Expect(blobs.fetched).To(BeEmpty())
				Expect(scorer.calls()).To(BeEmpty())
				Expect(publisher.messages).To(BeEmpty())
			})
		})

		Context("when no image is attached", func() {
			for _, upload := range []filestorage.Upload{{Kind: filestorage.NoUpload}, {Kind: filestorage.EmptyUpload}} {
				upload := upload
				It("should leave every image field absent for a "+upload.Kind.String()+" upload", func() {
					message, err := svc.CreateMessage(ctx, "alice@example.com", services.CreateMessageInput{Text: "hi", Upload: upload})

					Expect(err).NotTo(HaveOccurred())
					Expect(message.ImageURL).To(BeNil())
					Expect(message.ImageLabels).To(BeNil())
					Expect(message.ImageLandmark).To(BeNil())
					Expect(message.ImageLat).To(BeNil())
					Expect(message.ImageLong).To(BeNil())
					Expect(blobs.fetched).To(BeEmpty())
					Expect(analyzer.calls()).To(BeZero())
					Expect(markers.created).To(BeEmpty())
				})
			}
		})

		Context("when an image is attached", func() {
			It("should sanitize stored text but score the raw text", func() {
				message, err := svc.CreateMessage(ctx, "alice@example.com", withImage)

				Expect(err).NotTo(HaveOccurred())
				Expect(message.Text).To(Equal("Look at <b>this</b>"))
				Expect(scorer.calls()).To(Equal([]string{withImage.Text}))
				Expect(message.SentimentScore).To(Equal(0.4))
			})

			It("should assemble a persisted record with a fresh id and empty comments", func() {
				message, err := svc.CreateMessage(ctx, "alice@example.com", withImage)

				Expect(err).NotTo(HaveOccurred())
				Expect(message.ID.String()).NotTo(Equal("00000000-0000-0000-0000-000000000000"))
				Expect(message.CreatedAt).NotTo(BeZero())
				Expect(message.CommentIDs).NotTo(BeNil())
				Expect(message.CommentIDs).To(BeEmpty())
				Expect(message.Author).To(Equal("alice@example.com"))
				Expect(*message.ImageURL).To(Equal("http://localhost:8080/uploads/photo.jpg"))
				Expect(blobs.fetched).To(Equal([]filestorage.Ref{"photo.jpg"}))
				Expect(messages.created).To(ConsistOf(message))
				Expect(publisher.messages).To(ConsistOf(message))
			})

			It("should keep label descriptions in returned order", func() {
				analyzer.detections[vision.KindLabel] = vision.Succeeded([]vision.Annotation{
					{Description: "Cat"}, {Description: "Whiskers"}, {Description: "Mammal"},
				})

				message, err := svc.CreateMessage(ctx, "alice@example.com", withImage)

				Expect(err).NotTo(HaveOccurred())
				Expect(message.ImageLabels).To(Equal([]string{"Cat", "Whiskers", "Mammal"}))
			})

			It("should leave labels absent when none are returned", func() {
				analyzer.detections[vision.KindLabel] = vision.Succeeded([]vision.Annotation{})

				message, err := svc.CreateMessage(ctx, "alice@example.com", withImage)

				Expect(err).NotTo(HaveOccurred())
				Expect(message.ImageLabels).To(BeNil())
			})

			It("should still persist when label detection fails", func() {
				analyzer.detections[vision.KindLabel] = vision.Failed(errors.New("Bad image data."))

				message, err := svc.CreateMessage(ctx, "alice@example.com", withImage)

				Expect(err).NotTo(HaveOccurred())
				Expect(message.ImageLabels).To(BeNil())
				Expect(message.Text).To(Equal("Look at <b>this</b>"))
				Expect(message.SentimentScore).To(Equal(0.4))
				Expect(messages.created).To(HaveLen(1))
			})

			It("should store only the first of two landmarks and write its marker", func() {
				analyzer.detections[vision.KindLandmark] = vision.Succeeded([]vision.Annotation{eiffel, louvre})

				message, err := svc.CreateMessage(ctx, "alice@example.com", withImage)

				Expect(err).NotTo(HaveOccurred())
				Expect(*message.ImageLandmark).To(Equal("Eiffel Tower"))
				Expect(*message.ImageLat).To(Equal(48.858461))
				Expect(*message.ImageLong).To(Equal(2.294351))

				Expect(markers.created).To(HaveLen(1))
				Expect(markers.created[0].Content).To(Equal("Eiffel Tower"))
				Expect(markers.created[0].Lat).To(Equal(48.858461))
				Expect(markers.created[0].Lng).To(Equal(2.294351))
			})

			It("should keep a landmark name without coordinates and skip the marker", func() {
				analyzer.detections[vision.KindLandmark] = vision.Succeeded([]vision.Annotation{{Description: "Somewhere"}})

				message, err := svc.CreateMessage(ctx, "alice@example.com", withImage)

				Expect(err).NotTo(HaveOccurred())
				Expect(*message.ImageLandmark).To(Equal("Somewhere"))
				Expect(message.ImageLat).To(BeNil())
				Expect(message.ImageLong).To(BeNil())
				Expect(markers.created).To(BeEmpty())
			})

			It("should leave the landmark absent when detection fails", func() {
				analyzer.detections[vision.KindLandmark] = vision.Failed(errors.New("quota"))

				message, err := svc.CreateMessage(ctx, "alice@example.com", withImage)

				Expect(err).NotTo(HaveOccurred())
				Expect(message.ImageLandmark).To(BeNil())
				Expect(markers.created).To(BeEmpty())
			})

			It("should write the marker only after the message", func() {
				analyzer.detections[vision.KindLandmark] = vision.Succeeded([]vision.Annotation{eiffel})
				messages.createFn = func(context.Context, *models.Message) error {
					Expect(markers.created).To(BeEmpty())
					return nil
				}

				_, err := svc.CreateMessage(ctx, "alice@example.com", withImage)

				Expect(err).NotTo(HaveOccurred())
				Expect(markers.created).To(HaveLen(1))
			})

			It("should keep the message when the marker write fails", func() {
				analyzer.detections[vision.KindLandmark] = vision.Succeeded([]vision.Annotation{eiffel})
				markers.createErr = errors.New("markers table locked")

				message, err := svc.CreateMessage(ctx, "alice@example.com", withImage)

				Expect(err).NotTo(HaveOccurred())
				Expect(*message.ImageLandmark).To(Equal("Eiffel Tower"))
				Expect(messages.created).To(HaveLen(1))
			})
		})

		Context("when sentiment scoring fails", func() {
			It("should persist nothing and report a required stage failure", func() {
				scorer.err = errors.New("language service unavailable")
				analyzer.detections[vision.KindLandmark] = vision.Succeeded([]vision.Annotation{eiffel})

				message, err := svc.CreateMessage(ctx, "alice@example.com", withImage)

				Expect(message).To(BeNil())
				Expect(errors.Is(err, apperrors.ErrRequiredStage)).To(BeTrue())
				Expect(messages.created).To(BeEmpty())
				Expect(markers.created).To(BeEmpty())
				Expect(publisher.messages).To(BeEmpty())
			})
		})

		Context("when storage fails", func() {
			It("should fail on a blob fetch error before any analysis", func() {
				blobs.err = errors.New("range read failed")

				_, err := svc.CreateMessage(ctx, "alice@example.com", withImage)

				Expect(errors.Is(err, apperrors.ErrStorage)).To(BeTrue())
				Expect(analyzer.calls()).To(BeZero())
				Expect(scorer.calls()).To(BeEmpty())
			})

			It("should fail when the serving url cannot be resolved", func() {
				urls.err = errors.New("bad key")

				_, err := svc.CreateMessage(ctx, "alice@example.com", withImage)

				Expect(errors.Is(err, apperrors.ErrStorage)).To(BeTrue())
				Expect(messages.created).To(BeEmpty())
			})

			It("should not write a marker when the message write fails", func() {
				analyzer.detections[vision.KindLandmark] = vision.Succeeded([]vision.Annotation{eiffel})
				messages.createFn = func(context.Context, *models.Message) error {
					return errors.New("connection reset")
				}

				message, err := svc.CreateMessage(ctx, "alice@example.com", withImage)

				Expect(message).To(BeNil())
				Expect(errors.Is(err, apperrors.ErrStorage)).To(BeTrue())
				Expect(err.Error()).To(ContainSubstring("connection reset"))
				Expect(markers.created).To(BeEmpty())
			})
		})
	})
})
