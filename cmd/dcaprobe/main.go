/*
DESCRIPTION
  dcaprobe is a standalone tool for decoding a raw DTS Coherent Acoustics
  (.dca) elementary stream to a WAV file, reporting each access unit's
  profile, sample rate, and channel mask as it goes.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package dcaprobe is a standalone tool for decoding a raw DCA elementary
// stream to a WAV file.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/ausocean/av/codec/dca"
	"github.com/ausocean/av/codec/dca/bits"
	"github.com/ausocean/av/codec/dca/core"
	"github.com/ausocean/av/codec/wav"
	"github.com/ausocean/utils/logging"
)

const logVerbosity = logging.Info

// resyncWindow bounds how far past one access unit's declared core frame
// size dcaprobe will scan for the next core sync word, covering the
// largest plausible EXSS substream appended after the core frame.
const resyncWindow = 1 << 16

func main() {
	inPtr := flag.String("in", "", "path to a raw .dca elementary stream")
	outPtr := flag.String("out", "out.wav", "path to write the decoded PCM as a WAV file")
	stereoPtr := flag.Bool("stereo", false, "downmix the decoded output to stereo")
	xllPtr := flag.Bool("xll", false, "enable XLL lossless substream decoding")
	flag.Parse()

	log := logging.New(logVerbosity, os.Stderr, false)

	if *inPtr == "" {
		log.Fatal("no input path provided, check usage")
	}

	buf, err := os.ReadFile(*inPtr)
	if err != nil {
		log.Fatal("could not read input file", "error", err.Error())
	}

	opts := dca.DefaultOptions()
	opts.DisableXLL = !*xllPtr
	if *stereoPtr {
		opts.RequestChannelLayout = dca.LayoutStereo
	}
	d := dca.NewDecoder(opts)

	var pcm []byte
	var meta wav.Metadata
	var nframes int
	pos := 0
	for pos < len(buf) {
		res, consumed, err := decodeAccessUnit(d, buf[pos:])
		if err != nil {
			log.Warning("decode failed, resynchronizing", "offset", pos, "error", err.Error())
			next := findNextSync(buf, pos+1)
			if next < 0 {
				break
			}
			pos = next
			continue
		}

		if meta.Channels == 0 {
			meta = wav.Metadata{
				AudioFormat: wav.PCMFormat,
				Channels:    len(res.PCM),
				SampleRate:  res.SampleRate,
				BitDepth:    24,
			}
		}
		log.Info("decoded access unit", "frame", nframes, "profile", res.Profile.String(),
			"sampleRate", res.SampleRate, "channelMask", fmt.Sprintf("%#x", res.ChannelMask),
			"samples", res.NSamples)

		pcm = append(pcm, interleave24(res.PCM)...)
		nframes++
		pos += consumed
	}

	if nframes == 0 {
		log.Fatal("no access units decoded")
	}

	w := &wav.WAV{Metadata: meta}
	if _, err := w.Write(pcm); err != nil {
		log.Fatal("could not encode WAV", "error", err.Error())
	}
	if err := os.WriteFile(*outPtr, w.Audio, 0644); err != nil {
		log.Fatal("could not write output file", "error", err.Error())
	}

	log.Info("finished decoding", "frames", nframes, "out", *outPtr)
}

// decodeAccessUnit decodes one access unit from the start of buf and
// returns how many bytes of buf it consumed, derived from the core
// frame's own declared size (the controller itself does not report
// consumed length, since one call only ever sees a single borrowed
// access unit).
func decodeAccessUnit(d *dca.Decoder, buf []byte) (*dca.Output, int, error) {
	norm, err := dca.ConvertBitstream(buf)
	if err != nil {
		return nil, 0, err
	}
	r := bits.New(norm, bits.BigEndian)
	hdr, err := core.ParseFrameHeader(r)
	if err != nil {
		return nil, 0, err
	}

	out, err := d.DecodeAccessUnit(buf)
	if err != nil {
		return nil, 0, err
	}
	return out, hdr.FrameSize, nil
}

// findNextSync scans buf starting at from for the next core substream
// sync word, resynchronizing after a decode failure or an access unit
// whose trailing EXSS substream extends past its own declared size.
func findNextSync(buf []byte, from int) int {
	end := from + resyncWindow
	if end > len(buf)-4 {
		end = len(buf) - 4
	}
	for i := from; i <= end; i++ {
		if uint32(buf[i])<<24|uint32(buf[i+1])<<16|uint32(buf[i+2])<<8|uint32(buf[i+3]) == core.SyncCoreBE {
			return i
		}
	}
	return -1
}

// interleave24 packs planar fixed-point samples (24 bits significant, in
// the low bits of each int32) into little-endian 24-bit-per-sample
// interleaved PCM, the storage width wav.WAV.Write expects for a
// BitDepth of 24.
func interleave24(pcm [][]int32) []byte {
	if len(pcm) == 0 {
		return nil
	}
	n := len(pcm[0])
	out := make([]byte, 0, n*len(pcm)*3)
	for i := 0; i < n; i++ {
		for c := range pcm {
			v := uint32(pcm[c][i]) & 0xFFFFFF
			out = append(out, byte(v), byte(v>>8), byte(v>>16))
		}
	}
	return out
}
