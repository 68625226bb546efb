package recorder_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/talkalot/internal/recorder"
)

var _ = Describe("Machine", func() {
	var (
		ctx      context.Context
		media    *fakeMedia
		listener *recordingListener
		m        *recorder.Machine
	)

	BeforeEach(func() {
		ctx = context.Background()
		media = newFakeMedia()
		listener = &recordingListener{}
		m = recorder.New(media, recorder.WithListener(listener))
	})

	AfterEach(func() {
		Expect(m.Close()).To(Succeed())
	})

	It("starts idle with no controls besides start", func() {
		snap := m.Snapshot()
		Expect(snap.State).To(Equal(recorder.Idle))
		Expect(snap.Latest).To(BeNil())
		Expect(snap.CanPlay).To(BeFalse())
		Expect(snap.CanClear).To(BeFalse())
	})

	Describe("Start", func() {
		It("requests permission when undetermined and opens a capture session", func() {
			Expect(m.Start(ctx)).To(Succeed())

			Expect(m.State()).To(Equal(recorder.Recording))
			Expect(media.requests).To(Equal(1))
			Expect(media.lastMode()).To(Equal(recorder.CaptureMode))
			Expect(media.lastSession().started).To(BeTrue())
		})

		It("does not ask again once permission is granted", func() {
			media.status = recorder.PermissionGranted

			Expect(m.Start(ctx)).To(Succeed())
			Expect(media.requests).To(Equal(0))
		})

		It("stays idle and reports denial", func() {
			media.answer = recorder.PermissionDenied

			err := m.Start(ctx)
			Expect(err).To(MatchError(recorder.ErrPermissionDenied))
			Expect(m.State()).To(Equal(recorder.Idle))
			Expect(media.lastSession()).To(BeNil())
		})

		It("rejects a second start while recording", func() {
			Expect(m.Start(ctx)).To(Succeed())

			err := m.Start(ctx)
			var te *recorder.TransitionError
			Expect(errors.As(err, &te)).To(BeTrue())
			Expect(te.Action).To(Equal(recorder.ActionStart))
			Expect(te.State).To(Equal(recorder.Recording))
			Expect(err).To(MatchError(recorder.ErrInvalidTransition))
			Expect(media.sessions).To(HaveLen(1))
		})

		It("wraps capture failures and stays idle", func() {
			media.openErr = errors.New("device busy")

			err := m.Start(ctx)
			var me *recorder.MediaError
			Expect(errors.As(err, &me)).To(BeTrue())
			Expect(me.Op).To(Equal("open capture"))
			Expect(m.State()).To(Equal(recorder.Idle))
		})

		It("discards the session when it cannot start", func() {
			media.startErr = errors.New("io failure")

			Expect(m.Start(ctx)).To(HaveOccurred())
			Expect(media.lastSession().isDiscarded()).To(BeTrue())
			Expect(m.State()).To(Equal(recorder.Idle))
		})

		It("gives up on a media call that never answers", func() {
			m = recorder.New(media, recorder.WithTimeout(20*time.Millisecond))
			media.block = make(chan struct{})

			err := m.Start(ctx)
			var me *recorder.MediaError
			Expect(errors.As(err, &me)).To(BeTrue())
			Expect(me.Op).To(Equal("open capture"))
			Expect(err).To(MatchError(context.DeadlineExceeded))
			Expect(m.State()).To(Equal(recorder.Idle))
			Expect(m.Snapshot().Busy).To(BeFalse())

			close(media.block)
			Eventually(media.lastSession).ShouldNot(BeNil())
			Eventually(media.lastSession().isDiscarded).Should(BeTrue())
		})

		It("is not held up by a permission check that ignores its deadline", func() {
			m = recorder.New(media, recorder.WithTimeout(50*time.Millisecond))
			media.statusBlock = make(chan struct{})
			defer close(media.statusBlock)

			done := make(chan error, 1)
			go func() { done <- m.Start(ctx) }()

			var err error
			Eventually(done, time.Second).Should(Receive(&err))
			Expect(err).To(MatchError(context.DeadlineExceeded))
			snap := m.Snapshot()
			Expect(snap.State).To(Equal(recorder.Idle))
			Expect(snap.Busy).To(BeFalse())
		})

		It("reports busy while a start is in flight", func() {
			media.block = make(chan struct{})
			done := make(chan error, 1)
			go func() { done <- m.Start(ctx) }()

			Eventually(func() bool { return m.Snapshot().Busy }).Should(BeTrue())
			Expect(m.Start(ctx)).To(MatchError(recorder.ErrBusy))
			Expect(m.Clear()).To(MatchError(recorder.ErrBusy))

			close(media.block)
			Eventually(done).Should(Receive(BeNil()))
			Expect(m.State()).To(Equal(recorder.Recording))
		})
	})

	Describe("Stop", func() {
		It("is rejected while idle", func() {
			_, err := m.Stop(ctx)
			Expect(err).To(MatchError(recorder.ErrInvalidTransition))
			Expect(m.State()).To(Equal(recorder.Idle))
		})

		It("appends an artifact and makes it latest", func() {
			Expect(m.Start(ctx)).To(Succeed())
			art, err := m.Stop(ctx)
			Expect(err).NotTo(HaveOccurred())

			snap := m.Snapshot()
			Expect(snap.State).To(Equal(recorder.Idle))
			Expect(snap.Artifacts).To(ConsistOf(art))
			Expect(*snap.Latest).To(Equal(art))
			Expect(snap.CanPlay).To(BeTrue())
			Expect(snap.CanClear).To(BeTrue())
		})

		It("keeps the nth artifact as latest after n recordings", func() {
			const n = 4
			var last recorder.Artifact
			for i := 0; i < n; i++ {
				Expect(m.Start(ctx)).To(Succeed())
				art, err := m.Stop(ctx)
				Expect(err).NotTo(HaveOccurred())
				last = art
			}

			snap := m.Snapshot()
			Expect(snap.Artifacts).To(HaveLen(n))
			Expect(*snap.Latest).To(Equal(last))
			Expect(last.ID).To(Equal("clip-4"))
		})

		It("returns to idle without an artifact when finalizing fails", func() {
			Expect(m.Start(ctx)).To(Succeed())
			media.stopErr = errors.New("io failure")

			_, err := m.Stop(ctx)
			Expect(err).To(HaveOccurred())
			Expect(m.State()).To(Equal(recorder.Idle))
			Expect(m.Snapshot().Artifacts).To(BeEmpty())
			Expect(media.lastSession().isDiscarded()).To(BeTrue())
		})
	})

	Describe("amplitude feed", func() {
		It("forwards samples while recording and resets on stop", func() {
			Expect(m.Start(ctx)).To(Succeed())
			s := media.lastSession()

			s.onLevel(120)
			Expect(m.Snapshot().Level).To(Equal(120.0))

			_, err := m.Stop(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(m.Snapshot().Level).To(Equal(0.0))

			s.onLevel(300)
			Expect(m.Snapshot().Level).To(Equal(0.0))
			Expect(listener.Levels()).To(Equal([]float64{120, 0}))
		})
	})

	Describe("Play", func() {
		It("is rejected without a recording", func() {
			err := m.Play(ctx)
			Expect(err).To(MatchError(recorder.ErrNoRecording))
			Expect(err).To(MatchError(recorder.ErrInvalidTransition))
			Expect(media.lastPlayer()).To(BeNil())
		})

		It("plays the latest artifact at full volume and returns to idle", func() {
			Expect(m.Start(ctx)).To(Succeed())
			_, err := m.Stop(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(m.Start(ctx)).To(Succeed())
			latest, err := m.Stop(ctx)
			Expect(err).NotTo(HaveOccurred())

			Expect(m.Play(ctx)).To(Succeed())
			p := media.lastPlayer()
			Expect(m.State()).To(Equal(recorder.Playing))
			Expect(media.lastMode()).To(Equal(recorder.PlaybackMode))
			Expect(p.uri).To(Equal(latest.URI))
			Expect(p.volume).To(Equal(1.0))
			Expect(p.played).To(BeTrue())

			p.finish(nil)
			Eventually(m.State).Should(Equal(recorder.Idle))
			Eventually(p.isClosed).Should(BeTrue())
		})

		It("never records and plays at once", func() {
			Expect(m.Start(ctx)).To(Succeed())
			Expect(m.Play(ctx)).To(MatchError(recorder.ErrInvalidTransition))
			_, err := m.Stop(ctx)
			Expect(err).NotTo(HaveOccurred())

			Expect(m.Play(ctx)).To(Succeed())
			Expect(m.Start(ctx)).To(MatchError(recorder.ErrInvalidTransition))
			Expect(m.Clear()).To(MatchError(recorder.ErrInvalidTransition))
			media.lastPlayer().finish(nil)
			Eventually(m.State).Should(Equal(recorder.Idle))
		})

		It("releases the player when play fails", func() {
			Expect(m.Start(ctx)).To(Succeed())
			_, err := m.Stop(ctx)
			Expect(err).NotTo(HaveOccurred())
			media.playErr = errors.New("decoder failed")

			Expect(m.Play(ctx)).To(HaveOccurred())
			Expect(m.State()).To(Equal(recorder.Idle))
			Expect(media.lastPlayer().isClosed()).To(BeTrue())
		})
	})

	Describe("Clear", func() {
		It("empties the sequence and the latest reference", func() {
			for i := 0; i < 3; i++ {
				Expect(m.Start(ctx)).To(Succeed())
				_, err := m.Stop(ctx)
				Expect(err).NotTo(HaveOccurred())
			}

			Expect(m.Clear()).To(Succeed())
			snap := m.Snapshot()
			Expect(snap.State).To(Equal(recorder.Idle))
			Expect(snap.Artifacts).To(BeEmpty())
			Expect(snap.Latest).To(BeNil())
			Expect(snap.CanPlay).To(BeFalse())
		})

		It("is rejected when there is nothing to clear", func() {
			Expect(m.Clear()).To(MatchError(recorder.ErrNothingToClear))
		})

		It("is rejected while recording", func() {
			Expect(m.Start(ctx)).To(Succeed())
			Expect(m.Clear()).To(MatchError(recorder.ErrInvalidTransition))
		})
	})

	Describe("Toggle", func() {
		It("alternates between idle and recording", func() {
			st, err := m.Toggle(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(st).To(Equal(recorder.Recording))

			st, err = m.Toggle(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(st).To(Equal(recorder.Idle))
			Expect(listener.States()).To(Equal([]recorder.State{recorder.Recording, recorder.Idle}))
		})
	})

	Describe("Close", func() {
		It("discards an open session and refuses further work", func() {
			Expect(m.Start(ctx)).To(Succeed())
			s := media.lastSession()

			Expect(m.Close()).To(Succeed())
			Expect(s.isDiscarded()).To(BeTrue())
			Expect(m.State()).To(Equal(recorder.Idle))
			Expect(m.Start(ctx)).To(MatchError(recorder.ErrClosed))
		})

		It("leaves a stopping session to the stop in flight", func() {
			Expect(m.Start(ctx)).To(Succeed())
			s := media.lastSession()
			media.stopBlock = make(chan struct{})

			type stopResult struct {
				art recorder.Artifact
				err error
			}
			done := make(chan stopResult, 1)
			go func() {
				art, err := m.Stop(ctx)
				done <- stopResult{art, err}
			}()
			Eventually(func() bool { return m.Snapshot().Busy }).Should(BeTrue())

			Expect(m.Close()).To(Succeed())
			Expect(s.isDiscarded()).To(BeFalse())

			close(media.stopBlock)
			var res stopResult
			Eventually(done).Should(Receive(&res))
			Expect(res.err).To(MatchError(recorder.ErrClosed))
			Expect(s.isStopped()).To(BeTrue())
			Expect(s.isDiscarded()).To(BeTrue())
			Expect(m.Snapshot().Artifacts).To(BeEmpty())
		})
	})
})
