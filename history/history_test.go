package history

import (
	"fmt"
	"testing"

	"github.com/sangeet-cli/sangeet/catalog"
	"github.com/sangeet-cli/sangeet/filesystem"
	"github.com/sangeet-cli/sangeet/key"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
)

func init() {
	filesystem.SetMemMapFs()
	viper.SetDefault(key.HistorySize, 3)
}

func sampleTrack(id string) *catalog.Track {
	return &catalog.Track{
		ID:       id,
		Name:     "Raag " + id,
		Artist:   "Test Artist",
		Duration: 245,
		Language: "hindi",
		Images: []catalog.ImageCandidate{
			{Quality: "50x50", URL: "https://img.test/" + id + "/small.jpg"},
			{Quality: "500x500", URL: "https://img.test/" + id + "/large.jpg"},
		},
	}
}

func TestHistory(t *testing.T) {
	Convey("Given an empty registry", t, func() {
		So(cacher.Set([]*SavedTrack{}), ShouldBeNil)

		Convey("When pushing a track", func() {
			err := Push(sampleTrack("t1"))

			Convey("Then it becomes the newest entry with its best artwork", func() {
				So(err, ShouldBeNil)

				saved, err := Get()
				So(err, ShouldBeNil)
				So(saved, ShouldHaveLength, 1)
				So(saved[0].ID, ShouldEqual, "t1")
				So(saved[0].ArtworkURL, ShouldEqual, "https://img.test/t1/large.jpg")
			})
		})

		Convey("When pushing the same track twice", func() {
			So(Push(sampleTrack("t1")), ShouldBeNil)
			So(Push(sampleTrack("t2")), ShouldBeNil)
			So(Push(sampleTrack("t1")), ShouldBeNil)

			Convey("Then it moves to the head without duplicating", func() {
				saved, err := Get()
				So(err, ShouldBeNil)
				So(saved, ShouldHaveLength, 2)
				So(saved[0].ID, ShouldEqual, "t1")
				So(saved[1].ID, ShouldEqual, "t2")
			})
		})

		Convey("When pushing past the configured cap", func() {
			for i := 0; i < 5; i++ {
				So(Push(sampleTrack(fmt.Sprint("t", i))), ShouldBeNil)
			}

			Convey("Then the oldest entries are evicted", func() {
				saved, err := Get()
				So(err, ShouldBeNil)
				So(saved, ShouldHaveLength, 3)
				So(saved[0].ID, ShouldEqual, "t4")
				So(saved[2].ID, ShouldEqual, "t2")
			})
		})

		Convey("When upgrading an entry's artwork", func() {
			So(Push(sampleTrack("t1")), ShouldBeNil)
			So(UpgradeArtwork("t1", "https://img.test/t1/huge.jpg"), ShouldBeNil)

			Convey("Then the stored URL is rewritten in place", func() {
				saved, err := Get()
				So(err, ShouldBeNil)
				So(saved[0].ArtworkURL, ShouldEqual, "https://img.test/t1/huge.jpg")
			})
		})

		Convey("When removing an entry", func() {
			So(Push(sampleTrack("t1")), ShouldBeNil)
			So(Remove("t1"), ShouldBeNil)

			Convey("Then the registry no longer contains it", func() {
				saved, err := Get()
				So(err, ShouldBeNil)
				So(saved, ShouldBeEmpty)
			})
		})
	})
}
