package login

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"fmt"
)

// keyBits matches the RSA modulus size the wire protocol's Encryption
// Request expects.
const keyBits = 1024

// ServerKeyPair is the per-server RSA keypair used for the encryption
// handshake. crypto/rsa is the standard library's implementation; no
// third-party RSA library is grounded in the example pool (the one RSA
// user found, la2go's internal/crypto/rsa.go, itself wraps crypto/rsa),
// so this is a justified stdlib use — see DESIGN.md.
type ServerKeyPair struct {
	Private *rsa.PrivateKey
	PublicDER []byte
}

// GenerateServerKeyPair creates a fresh keypair, done once at server
// startup and reused for every connection's encryption handshake.
func GenerateServerKeyPair() (*ServerKeyPair, error) {
	priv, err := rsa.GenerateKey(rand.Reader, keyBits)
	if err != nil {
		return nil, fmt.Errorf("login: generating server keypair: %w", err)
	}
	der, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("login: marshaling public key: %w", err)
	}
	return &ServerKeyPair{Private: priv, PublicDER: der}, nil
}

// VerifyToken is the random challenge embedded in Encryption Request and
// echoed (RSA-encrypted) back in Encryption Response.
type VerifyToken [4]byte

// NewVerifyToken draws a fresh random token.
func NewVerifyToken() (VerifyToken, error) {
	var tok VerifyToken
	if _, err := rand.Read(tok[:]); err != nil {
		return tok, err
	}
	return tok, nil
}

// DecryptSharedSecretAndToken RSA-decrypts the two PKCS#1v1.5-encrypted
// fields of an Encryption Response.
func DecryptSharedSecretAndToken(priv *rsa.PrivateKey, encryptedSecret, encryptedToken []byte) (sharedSecret, token []byte, err error) {
	sharedSecret, err = rsa.DecryptPKCS1v15(rand.Reader, priv, encryptedSecret)
	if err != nil {
		return nil, nil, fmt.Errorf("login: decrypting shared secret: %w", err)
	}
	token, err = rsa.DecryptPKCS1v15(rand.Reader, priv, encryptedToken)
	if err != nil {
		return nil, nil, fmt.Errorf("login: decrypting verify token: %w", err)
	}
	return sharedSecret, token, nil
}
