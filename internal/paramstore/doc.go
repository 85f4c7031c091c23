// Package paramstore reads secrets, such as the Telegram bot token, from AWS
// SSM Parameter Store. SecureString parameters are decrypted on read.
package paramstore
