package pipeline

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/bogem/id3v2/v2"

	"github.com/pi11/podcaster/internal/db"
	"github.com/pi11/podcaster/internal/models"
)

// Process runs the processing pass: bring each downloaded episode under the
// size ceiling, embed metadata and artwork, and extract hashtags.
func (p *Pipeline) Process(ctx context.Context, snap *Snapshot, rep *Report) error {
	episodes, err := db.EpisodesForProcessing()
	if err != nil {
		return fmt.Errorf("failed to list episodes for processing: %w", err)
	}

	for _, ep := range episodes {
		if err := ctx.Err(); err != nil {
			return err
		}
		p.ProcessEpisode(ctx, snap, ep, rep)
	}
	return nil
}

// ProcessEpisode handles one episode. is_processed flips only after both
// the compression loop (success or best-effort) and the metadata write
// succeed; any failure leaves the episode retryable.
func (p *Pipeline) ProcessEpisode(ctx context.Context, snap *Snapshot, ep models.Episode, rep *Report) {
	subject := episodeSubject(ep.ID, ep.YoutubeID)

	claimed, err := db.ClaimEpisode(ep.ID, db.StatusProcessing)
	if err != nil {
		rep.Fail("process", FailureIntegrity, subject, err)
		return
	}
	if !claimed {
		log.Printf("Skipping %s: already claimed", subject)
		return
	}

	if ep.File == nil {
		rep.Fail("process", FailureIntegrity, subject, fmt.Errorf("episode marked downloaded but has no file"))
		db.ReleaseEpisode(ep.ID, db.StatusFailed)
		return
	}
	if _, err := os.Stat(*ep.File); err != nil {
		rep.Fail("process", FailureIntegrity, subject, fmt.Errorf("downloaded file missing: %w", err))
		db.ReleaseEpisode(ep.ID, db.StatusFailed)
		return
	}

	path, size, oversized, err := p.compress(ctx, ep)
	if err != nil {
		log.Printf("Compression failed for %s: %v", subject, err)
		rep.Fail("process", FailureTransient, subject, err)
		db.ReleaseEpisode(ep.ID, db.StatusFailed)
		return
	}
	if oversized {
		log.Printf("%s still over ceiling after final ladder step (%d bytes)", subject, size)
		rep.Add("oversized", subject)
	}

	src, err := db.GetSourceByID(ep.SourceID)
	if err != nil {
		rep.Fail("process", FailureConfiguration, subject, fmt.Errorf("missing source %d: %w", ep.SourceID, err))
		db.ReleaseEpisode(ep.ID, db.StatusFailed)
		return
	}

	if err := embedMetadata(path, ep, src); err != nil {
		log.Printf("Metadata embedding failed for %s: %v", subject, err)
		rep.Fail("process", FailureTransient, subject, err)
		db.ReleaseEpisode(ep.ID, db.StatusFailed)
		return
	}

	var tags []string
	if src.ExtractTags {
		tags = ExtractTags(ep.Name, ep.Description, snap.Vocabulary(), p.Cfg.MaxTags)
	}

	if err := db.MarkProcessed(ep.ID, path, size, oversized, tags); err != nil {
		rep.Fail("process", FailureIntegrity, subject, err)
		db.ReleaseEpisode(ep.ID, db.StatusFailed)
		return
	}
	rep.Add("process", subject)
	log.Printf("Processed %s", subject)
}

// compress walks the descending bitrate ladder until the artifact fits
// under the ceiling. If the final rung is still over, the last output is
// kept and the episode is reported oversized; this is best effort, not a
// guarantee. Each attempt lands in a temporary file and only a verified
// encode replaces the working artifact.
func (p *Pipeline) compress(ctx context.Context, ep models.Episode) (path string, size int64, oversized bool, err error) {
	path = *ep.File
	size = ep.Filesize
	if size <= p.Cfg.MaxAudioSize {
		return path, size, false, nil
	}

	input := *ep.File
	output := input + "-conv.mp3"
	for _, kbps := range p.Cfg.BitrateLadder {
		tmp := fmt.Sprintf("%s.%dk.part", output, kbps)
		if err := p.Transcoder.Encode(ctx, input, tmp, kbps); err != nil {
			os.Remove(tmp)
			return "", 0, false, err
		}
		fi, err := os.Stat(tmp)
		if err != nil {
			return "", 0, false, fmt.Errorf("encode produced no output: %w", err)
		}
		if fi.Size() == 0 {
			os.Remove(tmp)
			return "", 0, false, fmt.Errorf("encode produced empty output at %dk", kbps)
		}
		if err := os.Rename(tmp, output); err != nil {
			return "", 0, false, fmt.Errorf("failed to install encoded file: %w", err)
		}

		path, size = output, fi.Size()
		log.Printf("Re-encoded %s at %dk: %d bytes", ep.YoutubeID, kbps, size)
		if size <= p.Cfg.MaxAudioSize {
			return path, size, false, nil
		}
	}
	return path, size, true, nil
}

// embedMetadata writes the display name, source attribution, description
// and cover image into the audio file's ID3 tags. It runs once per episode,
// independent of the compression outcome.
func embedMetadata(path string, ep models.Episode, src models.Source) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("failed to open ID3 tag: %w", err)
	}
	defer tag.Close()

	tag.SetDefaultEncoding(id3v2.EncodingUTF8)
	tag.SetTitle(ep.Name)
	tag.SetArtist(src.Name)
	tag.SetAlbum(src.Name)
	if ep.Description != "" {
		tag.AddCommentFrame(id3v2.CommentFrame{
			Encoding:    id3v2.EncodingUTF8,
			Language:    "eng",
			Description: "Description",
			Text:        ep.Description,
		})
	}

	if ep.Thumbnail != nil {
		if artwork, err := os.ReadFile(*ep.Thumbnail); err == nil {
			tag.AddAttachedPicture(id3v2.PictureFrame{
				Encoding:    id3v2.EncodingUTF8,
				MimeType:    "image/jpeg",
				PictureType: id3v2.PTFrontCover,
				Description: "Cover",
				Picture:     artwork,
			})
		}
	}

	if err := tag.Save(); err != nil {
		return fmt.Errorf("failed to save ID3 tag: %w", err)
	}
	return nil
}
