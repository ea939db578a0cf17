package wad

import "bytes"

type signature struct {
	offset int
	magic  []byte
	ext    string
}

// signatures are checked in order; the first match wins
var signatures = []signature{
	{0, []byte("\x89PNG\r\n\x1a\n"), "png"},
	{0, []byte("\xff\xd8\xff"), "jpg"},
	{0, []byte("GIF8"), "gif"},
	{8, []byte("WEBP"), "webp"},
	{8, []byte("WAVE"), "wav"},
	{0, []byte("DDS "), "dds"},
	{0, []byte("TEX\x00"), "tex"},
	{0, []byte("OggS"), "ogg"},
	{0, []byte("ID3"), "mp3"},
	{0, []byte("wOFF"), "woff"},
	{0, []byte("wOF2"), "woff2"},
	{0, []byte("\x00\x01\x00\x00\x00"), "ttf"},
	{0, []byte("OTTO"), "otf"},
	{0, []byte("BKHD"), "bnk"},
	{0, []byte("r3d2Mesh"), "scb"},
	{0, []byte("r3d2anmd"), "anm"},
	{0, []byte("r3d2canm"), "anm"},
	{0, []byte("r3d2sklt"), "skl"},
	{4, []byte("\xc3\x4f\xfd\x22"), "skl"},
	{0, []byte("\x33\x22\x11\x00"), "skn"},
	{0, []byte("[ObjectBegin]"), "sco"},
	{0, []byte("PROP"), "bin"},
	{0, []byte("PTCH"), "bin"},
	{0, []byte("OEGM"), "mapgeo"},
	{0, []byte("RST"), "stringtable"},
	{0, []byte("\x1bLua"), "luabin"},
	{0, []byte("PreLoad"), "preload"},
	{0, []byte("<?xml"), "xml"},
	{0, []byte("<svg"), "svg"},
	{0, []byte("<!DOCTYPE html"), "html"},
	{0, []byte("<html"), "html"},
	{0, []byte("\x00\x00\x01\x00"), "ico"},
	{0, []byte("PK\x03\x04"), "zip"},
	{0, []byte("RW"), "wad"},
}

// guessExtension returns a file extension for data, or "" when unknown
func guessExtension(data []byte) string {
	for _, s := range signatures {
		if len(data) >= s.offset+len(s.magic) && bytes.Equal(data[s.offset:s.offset+len(s.magic)], s.magic) {
			return s.ext
		}
	}

	trimmed := bytes.TrimLeft(data, " \t\r\n\ufeff")
	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		return "json"
	}
	return ""
}
