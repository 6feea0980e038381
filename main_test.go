package main

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinks(t *testing.T) {
	addr := &net.TCPAddr{IP: net.ParseIP("192.168.1.20"), Port: 35714}
	assert.Equal(t, []string{"http://192.168.1.20:35714/abcdefgh/"}, Links(addr, "abcdefgh"))

	all := &net.TCPAddr{IP: net.IPv4zero, Port: 35714}
	links := Links(all, "abcdefgh")
	assert.NotEmpty(t, links)
	assert.Contains(t, links, "http://127.0.0.1:35714/abcdefgh/")
}

func TestFrontendEmbedded(t *testing.T) {
	fsys, err := viewerFS()
	require.NoError(t, err)
	for _, name := range []string{"index.html", "style.css", "viewer.js"} {
		_, err := fsys.Open(name)
		assert.NoError(t, err, name)
	}
}
